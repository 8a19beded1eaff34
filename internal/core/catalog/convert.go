package catalog

import (
	"fmt"
	"strings"

	"bar-inventory/internal/pkg/common"
)

// 酒瓶狀態
const (
	StateUnopened = "unopened"
	StateOpened   = "opened"
	StateEmpty    = "empty"
)

type converter struct {
	assetURL string
}

func (c converter) image(a *asset, fallback string) string {
	if a == nil || a.Path == "" {
		return fallback
	}
	return strings.TrimRight(c.assetURL, "/") + a.Path
}

// bottle 標籤依序為基酒、各類細分與額外標籤
func (c converter) bottle(r rawBottle, index int) common.Bottle {
	var tags []string
	if r.BaseSpirit != "" {
		tags = append(tags, r.BaseSpirit)
	}
	for _, group := range [][]string{r.WhiskeyTypes, r.TequilaTypes, r.GinTypes, r.RumTypes, r.LiqueurTypes, r.AdditionalTags} {
		tags = append(tags, group...)
	}

	state := bottleState(r.BottleState)
	inStock := state != StateEmpty
	if r.InStock != nil {
		inStock = *r.InStock
	}

	category := r.Category
	if category == "" {
		category = "Uncategorized"
	}

	return common.Bottle{
		ID:          itemID("bottle", r.ID, index),
		Name:        strings.TrimSpace(r.Name),
		Category:    category,
		BaseSpirit:  r.BaseSpirit,
		Tags:        trimAll(tags),
		InStock:     inStock,
		IsFingers:   r.IsFingers,
		BottleSize:  r.BottleSize,
		BottleState: state,
		Image:       c.image(r.Image, ""),
		ABV:         r.ABV.float(),
		Origin:      r.Origin,
		Company:     r.Company,
	}
}

func bottleState(raw string) string {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "unopened"):
		return StateUnopened
	case strings.Contains(s, "opened"):
		return StateOpened
	case strings.Contains(s, "empty"):
		return StateEmpty
	default:
		return StateOpened
	}
}

func (c converter) drink(r rawDrink, prefix string, index int) common.Drink {
	ingredients := make([]common.Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		name := firstNonEmpty(ing.Name, ing.LegacyName)
		if name == "" {
			continue
		}
		ingredients = append(ingredients, common.Ingredient{
			Name:     name,
			Qty:      firstNonEmpty(string(ing.Qty), string(ing.LegacyQuantity)),
			Optional: ing.IsOptional || ing.LegacyOptional,
		})
	}

	instructions := r.Instructions
	if len(r.Steps) > 0 {
		instructions = make(common.Instructions, 0, len(r.Steps))
		for _, s := range r.Steps {
			if step := strings.TrimSpace(s.Step); step != "" {
				instructions = append(instructions, step)
			}
		}
	}

	return common.Drink{
		ID:           itemID(prefix, r.ID, index),
		Name:         firstNonEmpty(r.Name, r.CocktailName),
		Ingredients:  ingredients,
		Instructions: instructions,
		ImageURL:     c.image(r.Image, r.ImageURL),
		Prep:         firstNonEmpty(r.Prep, r.LegacyPrep),
		Category:     r.Category,
		Tags:         r.Tags,
	}
}

func (c converter) beverage(r rawBeverage, kind string, index int) Beverage {
	inStock := true
	if r.InStock != nil {
		inStock = *r.InStock
	}
	return Beverage{
		ID:      itemID(kind, r.ID, index),
		Name:    strings.TrimSpace(r.Name),
		Kind:    kind,
		Type:    r.Type,
		InStock: inStock,
		Image:   c.image(r.Image, ""),
	}
}

func (c converter) barData(r rawBarData) *BarData {
	data := &BarData{
		Name:       r.Name,
		Bottles:    make([]common.Bottle, 0, len(r.Bottles)),
		Drinks:     make([]common.Drink, 0, len(r.Drinks)),
		Essentials: essentialNames(r.Essentials),
	}
	for i, b := range r.Bottles {
		data.Bottles = append(data.Bottles, c.bottle(b, i))
	}
	for i, d := range r.Drinks {
		drink := c.drink(d, "drink", i)
		drink.Source = common.SourceLocal
		data.Drinks = append(data.Drinks, drink)
	}
	for i, b := range r.Beers {
		data.Beverages = append(data.Beverages, c.beverage(b, "beer", i))
	}
	for i, w := range r.Wines {
		data.Beverages = append(data.Beverages, c.beverage(w, "wine", i))
	}
	return data
}

func (c converter) commonDrinks(entries []rawDrink) []common.Drink {
	drinks := make([]common.Drink, 0, len(entries))
	for i, e := range entries {
		d := c.drink(e, "common", i)
		d.Source = common.SourceCommon
		if d.Tags == nil {
			d.Tags = []string{}
		}
		drinks = append(drinks, d)
	}
	return drinks
}

// itemID CMS 有 _id 時沿用，否則以 1 起算的序號
func itemID(prefix, id string, index int) string {
	if id != "" {
		return prefix + "-" + id
	}
	return fmt.Sprintf("%s-%d", prefix, index+1)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
