// Package essentials 基本材料分類
package essentials

import (
	"fmt"
	"strings"

	"bar-inventory/internal/core/ingredient"
	"bar-inventory/internal/pkg/common"
)

// Category 基本材料分類
type Category struct {
	Name  string   `json:"name"`
	Icon  string   `json:"icon"`
	Key   string   `json:"key"`
	items []string // 已正規化的成員名稱
}

// Other 無對應分類時的預設分類
const Other = "Other"

// categoryTable 依順序比對，第一個符合的分類勝出
var categoryTable = []struct {
	name  string
	icon  string
	items []string
}{
	{"Basics", "🧊", []string{"ice", "water", "salt", "black pepper", "hot sauce", "worcestershire sauce"}},
	{"Carbonated & Mixers", "🥤", []string{"club soda", "tonic water", "ginger ale", "ginger beer", "sparkling water", "cola", "orange soda", "sprite/7-up"}},
	{"Fruits & Berries", "🍓", []string{"lemons", "limes", "grapefruits", "oranges", "cherries", "blackberries", "blueberries", "raspberries", "strawberries", "cranberries", "fresh lime", "fresh lemon", "fresh orange"}},
	{"Sweeteners", "🍯", []string{"agave nectar", "grenadine", "honey", "maple syrup", "sugar", "simple syrup", "brown sugar", "coconut sugar"}},
	{"Dairy & Cream", "🥛", []string{"eggs", "milk", "half and half", "half & half", "heavy cream", "coconut cream"}},
	{"Juices", "🍹", []string{"lemon juice", "lime juice", "orange juice", "grapefruit juice", "pineapple juice", "cranberry juice", "tomato juice"}},
	{"Bitters & Aromatics", "🌿", []string{"angostura bitters", "orange bitters", "peychaud's bitters", "aromatic bitters", "mint leaves", "basil"}},
	{"Garnishes", "🍒", []string{"maraschino cherries", "olives", "cocktail onions", "celery", "cucumber"}},
	{Other, "📦", nil},
}

// Classifier 基本材料分類器
type Classifier struct {
	categories []Category
}

// NewClassifier 創建分類器
func NewClassifier() *Classifier {
	categories := make([]Category, 0, len(categoryTable))
	for _, c := range categoryTable {
		items := make([]string, 0, len(c.items))
		for _, item := range c.items {
			items = append(items, ingredient.Normalize(item))
		}
		categories = append(categories, Category{
			Name:  c.name,
			Icon:  c.icon,
			Key:   categoryKey(c.name),
			items: items,
		})
	}
	return &Classifier{categories: categories}
}

// Classify 回傳材料所屬分類，找不到時回傳 Other
func (c *Classifier) Classify(name string) string {
	normalized := ingredient.Normalize(name)
	for _, cat := range c.categories {
		for _, item := range cat.items {
			if item == normalized {
				return cat.Name
			}
		}
	}
	return Other
}

// Categories 依顯示順序回傳所有分類
func (c *Classifier) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Group 依分類分組，分類順序與表格一致，空分類略過
type Group struct {
	Category
	Essentials []common.Essential `json:"essentials"`
}

// GroupByCategory 將基本材料依分類分組
func (c *Classifier) GroupByCategory(items []common.Essential) []Group {
	byName := make(map[string][]common.Essential, len(c.categories))
	for _, e := range items {
		cat := e.Category
		if cat == "" {
			cat = c.Classify(e.Name)
		}
		byName[cat] = append(byName[cat], e)
	}

	groups := make([]Group, 0, len(byName))
	for _, cat := range c.categories {
		if list := byName[cat.Name]; len(list) > 0 {
			groups = append(groups, Group{Category: cat, Essentials: list})
		}
	}
	return groups
}

// FromNames 將酒吧文件中的基本材料名稱轉為 Essential（皆視為有庫存）
func (c *Classifier) FromNames(names []string) []common.Essential {
	out := make([]common.Essential, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := ingredient.Normalize(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, common.Essential{
			ID:       fmt.Sprintf("essential-%d", len(out)+1),
			Name:     name,
			Category: c.Classify(name),
			InStock:  true,
		})
	}
	return out
}

// categoryKey 產生分類鍵值，例如 "Carbonated & Mixers" → "carbonatedmixers"
func categoryKey(name string) string {
	key := strings.ToLower(name)
	key = strings.ReplaceAll(key, "&", "")
	return strings.Join(strings.Fields(key), "")
}
