// Package ranking 搜尋結果與可調製酒單的排序
package ranking

import (
	"sort"

	"bar-inventory/internal/pkg/common"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// InStockFunc 材料是否有庫存
type InStockFunc func(name string) bool

// FavoritedFunc 酒譜是否被收藏
type FavoritedFunc func(drinkID string) bool

type matchKey struct {
	drink     common.MatchedDrink
	ratio     float64
	favorited bool
}

// SortMatches 排序單瓶搜尋結果：
// 可調製比例 → 收藏 → 來源 → 比對階段 → 名稱
func SortMatches(drinks []common.MatchedDrink, isInStock InStockFunc, isFavorited FavoritedFunc) []common.MatchedDrink {
	keys := make([]matchKey, len(drinks))
	for i, d := range drinks {
		keys[i] = matchKey{
			drink:     d,
			ratio:     requiredRatio(d.Drink, isInStock),
			favorited: favorited(isFavorited, d.ID),
		}
	}

	names := newNameComparer()
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ratio != b.ratio {
			return a.ratio > b.ratio
		}
		if a.favorited != b.favorited {
			return a.favorited
		}
		if ra, rb := a.drink.Source.Rank(), b.drink.Source.Rank(); ra != rb {
			return ra < rb
		}
		if ra, rb := a.drink.MatchStage.Rank(), b.drink.MatchStage.Rank(); ra != rb {
			return ra < rb
		}
		return names.less(a.drink.Name, b.drink.Name)
	})

	out := make([]common.MatchedDrink, len(keys))
	for i, k := range keys {
		out[i] = k.drink
	}
	return out
}

type drinkKey struct {
	drink      common.Drink
	ratio      float64
	totalRatio float64
	favorited  bool
}

// SortCocktailsByAvailability 排序可調製酒單：
// 必要材料比例 → 收藏 → 全部材料比例 → 非外部來源優先 → 名稱
func SortCocktailsByAvailability(drinks []common.Drink, isInStock InStockFunc, isFavorited FavoritedFunc) []common.Drink {
	keys := make([]drinkKey, len(drinks))
	for i, d := range drinks {
		keys[i] = drinkKey{
			drink:      d,
			ratio:      requiredRatio(d, isInStock),
			totalRatio: totalRatio(d, isInStock),
			favorited:  favorited(isFavorited, d.ID),
		}
	}

	names := newNameComparer()
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ratio != b.ratio {
			return a.ratio > b.ratio
		}
		if a.favorited != b.favorited {
			return a.favorited
		}
		if a.totalRatio != b.totalRatio {
			return a.totalRatio > b.totalRatio
		}
		if ea, eb := a.drink.Source == common.SourceExternal, b.drink.Source == common.SourceExternal; ea != eb {
			return eb
		}
		return names.less(a.drink.Name, b.drink.Name)
	})

	out := make([]common.Drink, len(keys))
	for i, k := range keys {
		out[i] = k.drink
	}
	return out
}

// requiredRatio 必要材料有庫存比例（0–100），無必要材料為 0
func requiredRatio(d common.Drink, isInStock InStockFunc) float64 {
	required, available := 0, 0
	for _, ing := range d.Ingredients {
		if ing.Optional {
			continue
		}
		required++
		if isInStock != nil && isInStock(ing.Name) {
			available++
		}
	}
	return percent(available, required)
}

func totalRatio(d common.Drink, isInStock InStockFunc) float64 {
	available := 0
	for _, ing := range d.Ingredients {
		if isInStock != nil && isInStock(ing.Name) {
			available++
		}
	}
	return percent(available, len(d.Ingredients))
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func favorited(isFavorited FavoritedFunc, id string) bool {
	return isFavorited != nil && isFavorited(id)
}

// nameComparer 依英文語系排序名稱；collator 非併發安全，每次排序各自建立
type nameComparer struct {
	c *collate.Collator
}

func newNameComparer() nameComparer {
	return nameComparer{c: collate.New(language.English)}
}

func (n nameComparer) less(a, b string) bool {
	if cmp := n.c.CompareString(a, b); cmp != 0 {
		return cmp < 0
	}
	return a < b
}
