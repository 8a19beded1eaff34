package availability

import (
	"testing"

	"bar-inventory/internal/core/ingredient"
	"bar-inventory/internal/pkg/common"

	"github.com/stretchr/testify/assert"
)

func newResolver(inv Inventory) *Resolver {
	return NewResolver(ingredient.NewNormalizer(nil), inv)
}

func TestIsInStock_FingersExcluded(t *testing.T) {
	r := newResolver(Inventory{Bottles: []common.Bottle{
		{Name: "Rare Scotch", InStock: true, IsFingers: true, Tags: []string{"scotch"}},
	}})

	assert.False(t, r.IsInStock("Rare Scotch"))
	assert.False(t, r.IsInStock("scotch"))
}

func TestIsInStock_Sources(t *testing.T) {
	inv := Inventory{
		Bottles: []common.Bottle{
			{Name: "Aperol", InStock: true, Tags: []string{"bitter liqueur"}},
			{Name: "Buffalo Trace", InStock: true, AKA: []string{"BT Bourbon"}, Tags: []string{"whiskey", "bourbon"}},
			{Name: "Cointreau", InStock: true, Tags: []string{"triple sec"}},
			{Name: "Hendrick's", InStock: false, Tags: []string{"gin"}},
		},
		Essentials: []common.Essential{
			{Name: "Fresh Lime", InStock: true},
			{Name: "Club Soda", InStock: true},
			{Name: "Honey", InStock: false},
		},
	}
	r := newResolver(inv)

	tests := []struct {
		name string
		want bool
	}{
		{"aperol", true},         // bottle name
		{"bt bourbon", true},     // aka
		{"Bourbon", true},        // tag
		{"Whisky", true},         // tag synonym
		{"orange liqueur", true}, // tag synonym of triple sec
		{"Lime Juice", true},     // essential fulfills via hierarchy
		{"limes", true},          // essential synonym
		{"soda water", true},     // essential synonym
		{"gin", false},           // out of stock bottle
		{"Honey", false},         // out of stock essential
		{"Rye", false},           // parent in stock does not satisfy child
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsInStock(tt.name))
		})
	}
}

func TestIsInStock_ParentSatisfiedByChildTag(t *testing.T) {
	r := newResolver(Inventory{Bottles: []common.Bottle{
		{Name: "Rittenhouse", InStock: true, Tags: []string{"rye"}},
	}})

	assert.True(t, r.IsInStock("whiskey"))
	assert.False(t, r.IsInStock("bourbon"))
}

func TestEvaluate(t *testing.T) {
	r := newResolver(Inventory{
		Bottles:    []common.Bottle{{Name: "Gin", InStock: true, Tags: []string{"gin"}}},
		Essentials: []common.Essential{{Name: "Tonic Water", InStock: true}},
	})

	gt := common.Drink{ID: "gt", Ingredients: []common.Ingredient{
		{Name: "Gin"}, {Name: "Tonic"}, {Name: "Cucumber", Optional: true},
	}}
	a := r.Evaluate(gt)
	assert.Equal(t, 2, a.Required)
	assert.Equal(t, 2, a.AvailableRequired)
	assert.Equal(t, 100.0, a.Ratio)
	assert.InDelta(t, 66.67, a.TotalRatio, 0.01)
	assert.True(t, a.FullyAvailable)
	assert.Empty(t, a.Missing)

	negroni := common.Drink{ID: "negroni", Ingredients: []common.Ingredient{
		{Name: "Gin"}, {Name: "Campari"}, {Name: "Sweet Vermouth"}, {Name: "Orange Peel", Optional: true},
	}}
	assert.InDelta(t, 33.33, r.AvailabilityRatio(negroni), 0.01)
	assert.False(t, r.IsFullyAvailable(negroni))
	assert.Equal(t, []string{"Campari", "Sweet Vermouth"}, r.Evaluate(negroni).Missing)
}

func TestZeroRequiredIsNeverAvailable(t *testing.T) {
	r := newResolver(Inventory{Essentials: []common.Essential{{Name: "Mint", InStock: true}}})

	garnishOnly := common.Drink{ID: "g", Ingredients: []common.Ingredient{{Name: "Mint", Optional: true}}}
	empty := common.Drink{ID: "e"}

	assert.Equal(t, 0.0, r.AvailabilityRatio(garnishOnly))
	assert.Equal(t, 100.0, r.TotalAvailabilityRatio(garnishOnly))
	assert.False(t, r.IsFullyAvailable(garnishOnly))
	assert.False(t, r.IsFullyAvailable(empty))
	assert.Empty(t, r.AvailableDrinks([]common.Drink{garnishOnly, empty}))
}

func TestAvailabilityIsMonotonic(t *testing.T) {
	drinks := []common.Drink{
		{ID: "daiquiri", Ingredients: []common.Ingredient{{Name: "White Rum"}, {Name: "Lime Juice"}, {Name: "Simple Syrup"}}},
		{ID: "old-fashioned", Ingredients: []common.Ingredient{{Name: "Whiskey"}, {Name: "Sugar"}, {Name: "Angostura Bitters"}}},
		{ID: "margarita", Ingredients: []common.Ingredient{{Name: "Tequila"}, {Name: "Triple Sec"}, {Name: "Lime Juice"}}},
	}
	additions := []Inventory{
		{Essentials: []common.Essential{{Name: "Limes", InStock: true}}},
		{Bottles: []common.Bottle{{Name: "Plantation 3 Stars", InStock: true, Tags: []string{"light rum"}}}},
		{Essentials: []common.Essential{{Name: "Simple Syrup", InStock: true}}},
		{Bottles: []common.Bottle{{Name: "Espolòn", InStock: true, Tags: []string{"tequila", "blanco"}}}},
		{Bottles: []common.Bottle{{Name: "Old Forester", InStock: true, Tags: []string{"bourbon"}}}},
	}

	var inv Inventory
	prev := make([]float64, len(drinks))
	for _, add := range additions {
		inv.Bottles = append(inv.Bottles, add.Bottles...)
		inv.Essentials = append(inv.Essentials, add.Essentials...)
		r := newResolver(inv)
		for i, d := range drinks {
			ratio := r.AvailabilityRatio(d)
			assert.GreaterOrEqual(t, ratio, prev[i], "ratio of %s decreased", d.ID)
			prev[i] = ratio
		}
	}
	assert.Equal(t, 100.0, prev[0])
}
