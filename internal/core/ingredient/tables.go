package ingredient

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// SynonymMap 雙向同義詞表：名稱 → 同組其他名稱
type SynonymMap map[string]map[string]struct{}

// HierarchyMap 單向階層表：一般名稱 → 可滿足它的具體名稱
type HierarchyMap map[string]map[string]struct{}

// Tables 材料對照表
type Tables struct {
	Synonyms  SynonymMap
	Hierarchy HierarchyMap
}

// tablesFile YAML 檔案格式
type tablesFile struct {
	Synonyms  [][]string          `yaml:"synonyms"`
	Hierarchy map[string][]string `yaml:"hierarchy"`
}

// ParseTables 解析 YAML 對照表
func ParseTables(data []byte) (*Tables, error) {
	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ingredient tables: %w", err)
	}
	t := &Tables{
		Synonyms:  SynonymMap{},
		Hierarchy: HierarchyMap{},
	}
	t.merge(file)
	return t, nil
}

// DefaultTables 內建對照表
func DefaultTables() *Tables {
	t, err := ParseTables(defaultTablesYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTables 內建對照表加上選用的 YAML 覆蓋檔
func LoadTables(overlayPath string) (*Tables, error) {
	t := DefaultTables()
	if overlayPath == "" {
		return t, nil
	}
	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ingredient tables %s: %w", overlayPath, err)
	}
	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ingredient tables %s: %w", overlayPath, err)
	}
	t.merge(file)
	return t, nil
}

func (t *Tables) merge(file tablesFile) {
	for _, group := range file.Synonyms {
		names := make([]string, 0, len(group))
		for _, name := range group {
			if n := Normalize(name); n != "" {
				names = append(names, n)
			}
		}
		for _, name := range names {
			set, ok := t.Synonyms[name]
			if !ok {
				set = map[string]struct{}{}
				t.Synonyms[name] = set
			}
			for _, other := range names {
				if other != name {
					set[other] = struct{}{}
				}
			}
		}
	}

	for parent, children := range file.Hierarchy {
		p := Normalize(parent)
		if p == "" {
			continue
		}
		set, ok := t.Hierarchy[p]
		if !ok {
			set = map[string]struct{}{}
			t.Hierarchy[p] = set
		}
		for _, child := range children {
			if c := Normalize(child); c != "" && c != p {
				set[c] = struct{}{}
			}
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
