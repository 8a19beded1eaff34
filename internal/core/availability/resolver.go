// Package availability 判斷材料是否有庫存，並計算酒譜可調製比例
package availability

import (
	"sync"

	"bar-inventory/internal/core/ingredient"
	"bar-inventory/internal/pkg/common"
)

// Inventory 單次查詢使用的庫存快照
type Inventory struct {
	Bottles    []common.Bottle
	Essentials []common.Essential
}

// Resolver 庫存判斷器；快照建立後唯讀，結果會被快取
type Resolver struct {
	normalizer *ingredient.Normalizer
	essentials []string // 有庫存的基本材料（已正規化）
	names      []string // 有庫存且非純飲酒瓶的名稱與別名
	tags       []string // 上述酒瓶的標籤
	memo       sync.Map
}

// NewResolver 依庫存快照建立判斷器
func NewResolver(normalizer *ingredient.Normalizer, inv Inventory) *Resolver {
	if normalizer == nil {
		normalizer = ingredient.NewNormalizer(nil)
	}
	r := &Resolver{normalizer: normalizer}

	for _, e := range inv.Essentials {
		if !e.InStock {
			continue
		}
		if n := ingredient.Normalize(e.Name); n != "" {
			r.essentials = append(r.essentials, n)
		}
	}

	seenTags := map[string]bool{}
	for _, b := range inv.Bottles {
		// 純飲酒瓶即使有庫存也不作為調酒材料
		if !b.InStock || b.IsFingers {
			continue
		}
		if n := ingredient.Normalize(b.Name); n != "" {
			r.names = append(r.names, n)
		}
		for _, aka := range b.AKA {
			if n := ingredient.Normalize(aka); n != "" {
				r.names = append(r.names, n)
			}
		}
		for _, tag := range b.Tags {
			n := ingredient.Normalize(tag)
			if n == "" || seenTags[n] {
				continue
			}
			seenTags[n] = true
			r.tags = append(r.tags, n)
		}
	}
	return r
}

// IsInStock 材料是否可由目前庫存取得
func (r *Resolver) IsInStock(name string) bool {
	requested := ingredient.Normalize(name)
	if requested == "" {
		return false
	}
	if v, ok := r.memo.Load(requested); ok {
		return v.(bool)
	}
	found := r.resolve(requested)
	r.memo.Store(requested, found)
	return found
}

func (r *Resolver) resolve(requested string) bool {
	n := r.normalizer

	// 基本材料：相同、階層子項或同義詞
	for _, e := range r.essentials {
		if n.CanFulfill(requested, e) || n.AreSynonyms(requested, e) {
			return true
		}
	}

	// 酒瓶名稱與別名
	for _, name := range r.names {
		if name == requested {
			return true
		}
	}

	// 酒瓶標籤：相同、同義詞或階層子項（例如 whiskey ← bourbon）
	for _, tag := range r.tags {
		if n.CanFulfill(requested, tag) || n.AreSynonyms(requested, tag) {
			return true
		}
	}

	return false
}

// Availability 單一酒譜的庫存狀況
type Availability struct {
	Required          int      `json:"required"`
	AvailableRequired int      `json:"available_required"`
	Total             int      `json:"total"`
	AvailableTotal    int      `json:"available_total"`
	Ratio             float64  `json:"ratio"`
	TotalRatio        float64  `json:"total_ratio"`
	FullyAvailable    bool     `json:"fully_available"`
	Missing           []string `json:"missing,omitempty"`
}

// Evaluate 計算酒譜的庫存狀況
func (r *Resolver) Evaluate(d common.Drink) Availability {
	var a Availability
	for _, ing := range d.Ingredients {
		inStock := r.IsInStock(ing.Name)
		a.Total++
		if inStock {
			a.AvailableTotal++
		}
		if ing.Optional {
			continue
		}
		a.Required++
		if inStock {
			a.AvailableRequired++
		} else {
			a.Missing = append(a.Missing, ing.Name)
		}
	}
	a.Ratio = percent(a.AvailableRequired, a.Required)
	a.TotalRatio = percent(a.AvailableTotal, a.Total)
	a.FullyAvailable = a.Required > 0 && a.AvailableRequired == a.Required
	return a
}

// AvailabilityRatio 必要材料中有庫存的比例（0–100），無必要材料時為 0
func (r *Resolver) AvailabilityRatio(d common.Drink) float64 {
	return r.Evaluate(d).Ratio
}

// TotalAvailabilityRatio 含選用材料的比例，僅用於排序
func (r *Resolver) TotalAvailabilityRatio(d common.Drink) float64 {
	return r.Evaluate(d).TotalRatio
}

// IsFullyAvailable 至少一項必要材料，且全部有庫存
func (r *Resolver) IsFullyAvailable(d common.Drink) bool {
	return r.Evaluate(d).FullyAvailable
}

// AvailableDrinks 篩出目前可調製的酒譜，保持原順序
func (r *Resolver) AvailableDrinks(drinks []common.Drink) []common.Drink {
	out := make([]common.Drink, 0, len(drinks))
	for _, d := range drinks {
		if r.IsFullyAvailable(d) {
			out = append(out, d)
		}
	}
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
