package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source 酒譜來源
type Source string

const (
	SourceLocal    Source = "local"    // 店家自有酒單
	SourceCommon   Source = "common"   // 共用酒單
	SourceExternal Source = "external" // 第三方查詢
)

// Rank 來源排序權重，local 最前
func (s Source) Rank() int {
	switch s {
	case SourceLocal:
		return 0
	case SourceCommon:
		return 1
	default:
		return 2
	}
}

// MatchStage 比對階段
type MatchStage string

const (
	StageName       MatchStage = "name"
	StageTag        MatchStage = "tag"
	StageBaseSpirit MatchStage = "baseSpirit"
)

// Rank 階段精確度，name 最精確
func (m MatchStage) Rank() int {
	switch m {
	case StageName:
		return 0
	case StageTag:
		return 1
	default:
		return 2
	}
}

// Bottle 酒瓶
type Bottle struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	BaseSpirit  string   `json:"base_spirit,omitempty"`
	Tags        []string `json:"tags"`
	AKA         []string `json:"aka,omitempty"`
	InStock     bool     `json:"in_stock"`
	IsFingers   bool     `json:"is_fingers"` // 僅供純飲，不作為調酒材料
	BottleSize  string   `json:"bottle_size,omitempty"`
	BottleState string   `json:"bottle_state,omitempty"`
	Image       string   `json:"image,omitempty"`
	ABV         float64  `json:"abv,omitempty"`
	Origin      string   `json:"origin,omitempty"`
	Company     string   `json:"company,omitempty"`
}

// Essential 基本材料（糖漿、果汁、裝飾等）
type Essential struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	InStock  bool   `json:"in_stock"`
}

// Ingredient 酒譜材料
type Ingredient struct {
	Name     string `json:"name"`
	Qty      string `json:"qty,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Instructions 製作步驟，JSON 可為單一字串或字串陣列
type Instructions []string

// UnmarshalJSON 同時接受字串與字串陣列
func (in *Instructions) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*in = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*in = nil
			return nil
		}
		*in = Instructions{s}
		return nil
	}
	var steps []string
	if err := json.Unmarshal(data, &steps); err != nil {
		return fmt.Errorf("instructions must be a string or a list of strings: %w", err)
	}
	*in = steps
	return nil
}

// Drink 酒譜
type Drink struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions Instructions `json:"instructions"`
	ImageURL     string       `json:"image_url,omitempty"`
	Prep         string       `json:"prep,omitempty"`
	Category     string       `json:"category,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Source       Source       `json:"source"`
}

// RequiredIngredients 必要（非選用）材料
func (d Drink) RequiredIngredients() []Ingredient {
	required := make([]Ingredient, 0, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		if !ing.Optional {
			required = append(required, ing)
		}
	}
	return required
}

// IsNonAlcoholic 依分類或標籤判斷是否為無酒精飲品
func (d Drink) IsNonAlcoholic() bool {
	if strings.Contains(strings.ToLower(d.Category), "non-alcoholic") {
		return true
	}
	for _, tag := range d.Tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, "non-alcoholic") || strings.Contains(t, "mocktail") {
			return true
		}
	}
	return false
}

// MatchedDrink 單次搜尋中比對到的酒譜
type MatchedDrink struct {
	Drink
	MatchStage  MatchStage `json:"match_stage"`
	MatchedTerm string     `json:"matched_term"`
}

// FormatIngredients 格式化材料列表（日誌用）
func FormatIngredients(ingredients []Ingredient) string {
	if len(ingredients) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		part := ing.Name
		if ing.Qty != "" {
			part += fmt.Sprintf(" (%s)", ing.Qty)
		}
		if ing.Optional {
			part += " [optional]"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
