package cocktaildb

import (
	"fmt"
	"strings"

	"bar-inventory/internal/pkg/common"
)

// IDPrefix 外部酒譜 ID 前綴
const IDPrefix = "cocktaildb-"

// maxIngredients CocktailDB 每個酒譜最多 15 項材料
const maxIngredients = 15

// rawDrink lookup.php / random.php 回傳的單一酒譜，欄位值可能為 null
type rawDrink map[string]interface{}

func (r rawDrink) str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return strings.TrimSpace(s)
}

// toDrink 轉換為共用酒譜格式；外部材料一律視為必要
func (r rawDrink) toDrink() (common.Drink, bool) {
	id := r.str("idDrink")
	if id == "" {
		return common.Drink{}, false
	}

	d := common.Drink{
		ID:       IDPrefix + id,
		Name:     r.str("strDrink"),
		ImageURL: r.str("strDrinkThumb"),
		Source:   common.SourceExternal,
		Tags:     splitTags(r.str("strTags")),
	}
	for i := 1; i <= maxIngredients; i++ {
		name := r.str(fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		d.Ingredients = append(d.Ingredients, common.Ingredient{
			Name: name,
			Qty:  r.str(fmt.Sprintf("strMeasure%d", i)),
		})
	}
	if instructions := r.str("strInstructions"); instructions != "" {
		d.Instructions = common.Instructions{instructions}
	}
	d.Category = category(r.str("strCategory"), d.Tags)
	return d, true
}

// category 過於籠統的分類改用第一個標籤，都沒有時為 Cocktail
func category(raw string, tags []string) string {
	if raw != "" && raw != "Other / Unknown" && raw != "Ordinary Drink" {
		return raw
	}
	if len(tags) > 0 {
		return tags[0]
	}
	return "Cocktail"
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
