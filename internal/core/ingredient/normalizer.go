// Package ingredient 材料名稱正規化、同義詞與階層判斷
package ingredient

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalizer 材料名稱比對器，建立後唯讀，可併發使用
type Normalizer struct {
	synonyms  SynonymMap
	hierarchy HierarchyMap
}

// NewNormalizer 創建材料名稱比對器
func NewNormalizer(tables *Tables) *Normalizer {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Normalizer{
		synonyms:  tables.Synonyms,
		hierarchy: tables.Hierarchy,
	}
}

// Normalize 轉小寫、去頭尾空白並壓縮連續空白
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// IsEquivalent 不分大小寫、忽略空白的完全比對
func (n *Normalizer) IsEquivalent(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// CanFulfill candidate 是否能滿足 requested（相同，或為 requested 的子項）
func (n *Normalizer) CanFulfill(requested, candidate string) bool {
	req, cand := Normalize(requested), Normalize(candidate)
	if req == cand {
		return true
	}
	_, ok := n.hierarchy[req][cand]
	return ok
}

// SynonymsOf 回傳同組同義詞（不含自身），依字母排序
func (n *Normalizer) SynonymsOf(name string) []string {
	set, ok := n.synonyms[Normalize(name)]
	if !ok {
		return nil
	}
	return sortedKeys(set)
}

// AreSynonyms a 與 b 是否屬於同一同義詞組
func (n *Normalizer) AreSynonyms(a, b string) bool {
	_, ok := n.synonyms[Normalize(a)][Normalize(b)]
	return ok
}

// ChildrenOf 回傳可滿足 parent 的具體名稱
func (n *Normalizer) ChildrenOf(parent string) []string {
	set, ok := n.hierarchy[Normalize(parent)]
	if !ok {
		return nil
	}
	return sortedKeys(set)
}

// ContainsWord term 是否以完整單字（或片語）出現在 text 中
func ContainsWord(text, term string) bool {
	t, w := Normalize(text), Normalize(term)
	if w == "" {
		return false
	}
	if t == w {
		return true
	}
	for offset := 0; offset < len(t); {
		idx := strings.Index(t[offset:], w)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(w)
		if isBoundary(t, start, true) && isBoundary(t, end, false) {
			return true
		}
		_, size := utf8.DecodeRuneInString(t[start:])
		offset = start + size
	}
	return false
}

// isBoundary 判斷位置 i 前（before）或後是否為單字邊界
func isBoundary(s string, i int, before bool) bool {
	var r rune
	if before {
		if i == 0 {
			return true
		}
		r, _ = utf8.DecodeLastRuneInString(s[:i])
	} else {
		if i >= len(s) {
			return true
		}
		r, _ = utf8.DecodeRuneInString(s[i:])
	}
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
