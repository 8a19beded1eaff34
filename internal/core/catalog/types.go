package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"bar-inventory/internal/pkg/common"
)

// Beverage 啤酒或葡萄酒
type Beverage struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"` // beer | wine
	Type    string `json:"type,omitempty"`
	InStock bool   `json:"in_stock"`
	Image   string `json:"image,omitempty"`
}

// BarData 單一酒吧的完整資料
type BarData struct {
	Name       string          `json:"name"`
	Bottles    []common.Bottle `json:"bottles"`
	Drinks     []common.Drink  `json:"drinks"`
	Beverages  []Beverage      `json:"beverages"`
	Essentials []string        `json:"essentials"` // 店家勾選的基本材料名稱
}

// 以下為 CMS 文件格式

type asset struct {
	Path string `json:"path"`
}

type rawBottle struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	BaseSpirit     string     `json:"baseSpirit"`
	AdditionalTags []string   `json:"additionalTags"`
	BottleSize     string     `json:"bottleSize"`
	Company        string     `json:"company"`
	ABV            flexString `json:"abv"`
	Origin         string     `json:"origin"`
	BottleState    string     `json:"bottleState"`
	InStock        *bool      `json:"inStock"`
	Image          *asset     `json:"image"`
	IsFingers      bool       `json:"isFingers"`
	WhiskeyTypes   []string   `json:"whiskeyTypes"`
	TequilaTypes   []string   `json:"tequilaTypes"`
	GinTypes       []string   `json:"ginTypes"`
	RumTypes       []string   `json:"rumTypes"`
	LiqueurTypes   []string   `json:"liqueurTypes"`
}

type rawIngredient struct {
	Name           string     `json:"name"`
	Qty            flexString `json:"qty"`
	IsOptional     bool       `json:"isOptional"`
	LegacyName     string     `json:"Ingredient Name"`
	LegacyQuantity flexString `json:"Quantity"`
	LegacyOptional bool       `json:"Optional"`
}

type rawStep struct {
	Step string `json:"step"`
}

type rawDrink struct {
	ID           string              `json:"_id"`
	Name         string              `json:"name"`
	CocktailName string              `json:"cocktailName"`
	Category     string              `json:"category"`
	Image        *asset              `json:"image"`
	ImageURL     string              `json:"imageUrl"`
	Ingredients  []rawIngredient     `json:"ingredients"`
	Steps        []rawStep           `json:"steps"`
	Instructions common.Instructions `json:"instructions"`
	Prep         string              `json:"prep"`
	LegacyPrep   string              `json:"Preparation Method"`
	Tags         []string            `json:"tags"`
}

type rawBeverage struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	InStock *bool  `json:"inStock"`
	Image   *asset `json:"image"`
}

type rawBarData struct {
	Name       string          `json:"name"`
	Bottles    []rawBottle     `json:"bottles"`
	Drinks     []rawDrink      `json:"drinks"`
	Beers      []rawBeverage   `json:"beers"`
	Wines      []rawBeverage   `json:"wines"`
	Essentials json.RawMessage `json:"essentials"`
}

type rawEntries struct {
	Entries []rawDrink `json:"entries"`
}

// essentialNames 基本材料可能是字串陣列或 {name} 物件陣列
func essentialNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return trimAll(names)
	}
	var objects []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &objects); err == nil {
		for _, o := range objects {
			names = append(names, o.Name)
		}
		return trimAll(names)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// flexString CMS 欄位可能是字串、數字或 null
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// float 解析數值，忽略百分號，無法解析時為 0
func (f flexString) float() float64 {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(f)), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
