package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"bar-inventory/internal/core/availability"
	"bar-inventory/internal/core/ingredient"
	"bar-inventory/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	local, shared []common.Drink
	localErr      error
	sharedErr     error
	calls         int
	mu            sync.Mutex
}

func (f *fakeCatalog) FetchLocalCocktails(ctx context.Context) ([]common.Drink, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.local, f.localErr
}

func (f *fakeCatalog) FetchCommonCocktails(ctx context.Context) ([]common.Drink, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.shared, f.sharedErr
}

type fakeExternal struct {
	results map[string][]common.Drink
	errs    map[string]error
	failAll bool
	onCall  func(term string)
	calls   []string
}

func (f *fakeExternal) SearchByIngredient(ctx context.Context, term string) ([]common.Drink, error) {
	f.calls = append(f.calls, term)
	if f.onCall != nil {
		f.onCall(term)
	}
	if f.failAll {
		return nil, errors.New("429 too many requests")
	}
	if err := f.errs[term]; err != nil {
		return nil, err
	}
	return f.results[term], nil
}

func drink(id, name string, ings ...string) common.Drink {
	d := common.Drink{ID: id, Name: name}
	for _, n := range ings {
		d.Ingredients = append(d.Ingredients, common.Ingredient{Name: n})
	}
	return d
}

func resolver(bottles []common.Bottle, essentials ...string) *availability.Resolver {
	inv := availability.Inventory{Bottles: bottles}
	for _, e := range essentials {
		inv.Essentials = append(inv.Essentials, common.Essential{Name: e, InStock: true})
	}
	return availability.NewResolver(ingredient.NewNormalizer(nil), inv)
}

func drinkIDs(drinks []common.MatchedDrink) []string {
	out := make([]string, len(drinks))
	for i, d := range drinks {
		out[i] = d.ID
	}
	return out
}

func TestFindMatches_AperolEndToEnd(t *testing.T) {
	bottle := common.Bottle{ID: "b1", Name: "Aperol", Tags: []string{"bitter liqueur"}, BaseSpirit: "Liqueur", InStock: true}
	catalog := &fakeCatalog{local: []common.Drink{
		drink("drink-1", "Aperol Spritz", "Aperol", "Prosecco", "Soda Water"),
		drink("drink-2", "Martini", "Gin", "Dry Vermouth"),
	}}
	external := &fakeExternal{}
	engine := NewEngine(catalog, external, resolver([]common.Bottle{bottle}), DefaultOptions())

	res, err := engine.FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	require.Len(t, res.Drinks, 1)
	got := res.Drinks[0]
	assert.Equal(t, "drink-1", got.ID)
	assert.Equal(t, common.StageName, got.MatchStage)
	assert.Equal(t, "Aperol", got.MatchedTerm)
	assert.Equal(t, common.SourceLocal, got.Source)
	assert.Equal(t, []StageTerm{{Stage: common.StageName, Term: "Aperol"}}, res.Stages)
	assert.Equal(t, "Matches for Aperol", res.Heading())
	assert.False(t, res.RateLimited)
	assert.False(t, res.Stopped)
	assert.Equal(t, []string{"Aperol", "bitter liqueur"}, external.calls)
}

func TestFindMatches_LiqueurBaseSpiritSkipped(t *testing.T) {
	bottle := common.Bottle{Name: "Mystery Bottle", BaseSpirit: "LIQUEUR", InStock: true}
	catalog := &fakeCatalog{local: []common.Drink{drink("drink-1", "Sidecar", "Orange Liqueur", "Cognac")}}
	external := &fakeExternal{}
	stock := resolver([]common.Bottle{{Name: "Cointreau", InStock: true, Tags: []string{"triple sec"}}})

	res, err := NewEngine(catalog, external, stock, DefaultOptions()).FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Drinks)
	assert.Equal(t, []string{"Mystery Bottle"}, external.calls)
	assert.Equal(t, "No matches found", res.Heading())
}

func TestFindMatches_FirstStageWins(t *testing.T) {
	bottle := common.Bottle{Name: "Buffalo Trace", Tags: []string{"bourbon"}, BaseSpirit: "whiskey", InStock: true}
	catalog := &fakeCatalog{
		local:  []common.Drink{drink("drink-1", "Old Fashioned", "Buffalo Trace Bourbon", "Sugar")},
		shared: []common.Drink{drink("drink-1", "Old Fashioned", "Bourbon", "Sugar")},
	}
	stock := resolver([]common.Bottle{bottle}, "Sugar")

	res, err := NewEngine(catalog, nil, stock, DefaultOptions()).FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	require.Len(t, res.Drinks, 1)
	assert.Equal(t, common.StageName, res.Drinks[0].MatchStage)
	assert.Equal(t, "Buffalo Trace", res.Drinks[0].MatchedTerm)
	assert.Equal(t, common.SourceLocal, res.Drinks[0].Source)
}

func TestFindMatches_FailureBudgetCutoff(t *testing.T) {
	bottle := common.Bottle{Name: "Monkey 47", Tags: []string{"dry gin", "botanical"}, BaseSpirit: "gin", InStock: true}
	catalog := &fakeCatalog{local: []common.Drink{
		drink("drink-1", "Gimlet", "Gin", "Lime Juice"),
		drink("drink-2", "Botanical Sour", "Botanical Spirit", "Lemon Juice"),
	}}
	external := &fakeExternal{failAll: true}
	stock := resolver([]common.Bottle{{Name: "Monkey 47", InStock: true, Tags: []string{"gin", "botanical spirit"}}})

	res, err := NewEngine(catalog, external, stock, DefaultOptions()).FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	// 名稱與第一個標籤各失敗一次後不再查詢外部來源，標籤迴圈也提前結束
	assert.Equal(t, []string{"Monkey 47", "dry gin"}, external.calls)
	assert.Equal(t, []string{"drink-1"}, drinkIDs(res.Drinks))
	assert.Equal(t, common.StageBaseSpirit, res.Drinks[0].MatchStage)
	assert.True(t, res.RateLimited)
}

func TestFindMatches_SuccessResetsFailureCount(t *testing.T) {
	bottle := common.Bottle{Name: "Tanqueray", Tags: []string{"london dry"}, BaseSpirit: "gin", InStock: true}
	external := &fakeExternal{errs: map[string]error{
		"Tanqueray": errors.New("timeout"),
		"gin":       errors.New("timeout"),
	}}
	stock := resolver([]common.Bottle{{Name: "Tanqueray", InStock: true, Tags: []string{"gin"}}})

	res, err := NewEngine(&fakeCatalog{}, external, stock, DefaultOptions()).FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Tanqueray", "london dry", "gin"}, external.calls)
	assert.False(t, res.RateLimited)
}

func TestFindMatches_ExternalMergeRequiresTerm(t *testing.T) {
	bottle := common.Bottle{Name: "Campari", InStock: true}
	external := &fakeExternal{results: map[string][]common.Drink{
		"Campari": {
			drink("cocktaildb-1", "Negroni", "Gin", "Campari", "Sweet Vermouth"),
			drink("cocktaildb-2", "Americano", "Campari Bitter", "Sweet Vermouth", "Soda Water"),
			drink("cocktaildb-3", "Unrelated", "Gin", "Tonic"),
		},
	}}
	stock := resolver([]common.Bottle{bottle}, "Soda Water")

	res, err := NewEngine(&fakeCatalog{}, external, stock, DefaultOptions()).FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"cocktaildb-1", "cocktaildb-2"}, drinkIDs(res.Drinks))
	for _, d := range res.Drinks {
		assert.Equal(t, common.SourceExternal, d.Source)
	}
}

func TestFindMatches_NoExternalWhenTargetReached(t *testing.T) {
	bottle := common.Bottle{Name: "Rittenhouse", Tags: []string{"rye"}, InStock: true}
	var local []common.Drink
	for i := 0; i < 10; i++ {
		local = append(local, drink(fmt.Sprintf("drink-%d", i), fmt.Sprintf("Rye Drink %d", i), "Rittenhouse Rye", "Sugar"))
	}
	external := &fakeExternal{}
	stock := resolver([]common.Bottle{{Name: "Rittenhouse Rye", InStock: true}})

	res, err := NewEngine(&fakeCatalog{local: local}, external, stock, DefaultOptions()).FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	assert.Len(t, res.Drinks, 10)
	assert.Empty(t, external.calls)
}

func TestFindMatches_UnusableDrinksFiltered(t *testing.T) {
	bottle := common.Bottle{Name: "Angostura", InStock: true}
	garnish := common.Drink{ID: "drink-1", Name: "Garnish Only", Ingredients: []common.Ingredient{
		{Name: "Angostura Bitters", Optional: true},
	}}
	nothingInStock := drink("drink-2", "Trinidad Sour", "Angostura Bitters", "Orgeat")
	usable := drink("drink-3", "Pink Gin", "Angostura Bitters", "Gin")
	stock := resolver(nil, "Gin")

	res, err := NewEngine(&fakeCatalog{local: []common.Drink{garnish, nothingInStock, usable}}, nil, stock, DefaultOptions()).
		FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"drink-3"}, drinkIDs(res.Drinks))
}

func TestFindMatches_PruningProtectsFullyAvailable(t *testing.T) {
	bottle := common.Bottle{Name: "Gin Co", Tags: []string{"juniper"}, BaseSpirit: "gin", InStock: true}
	full := func(id, term string) common.Drink { return drink(id, id, term, "Lime Juice") }
	half := func(id, term string) common.Drink { return drink(id, id, term, "Campari") }
	third := func(id, term string) common.Drink { return drink(id, id, term, "Campari", "Vermouth") }
	quarter := func(id, term string) common.Drink { return drink(id, id, term, "Campari", "Vermouth", "Absinthe") }

	local := []common.Drink{
		full("n1", "Gin Co"), full("n2", "Gin Co"), half("n3", "Gin Co"), third("n4", "Gin Co"),
		full("t1", "Juniper Spirit"), half("t2", "Juniper Spirit"), third("t3", "Juniper Spirit"), quarter("t4", "Juniper Spirit"),
		full("b1", "Gin"), half("b2", "Gin"), third("b3", "Gin"), quarter("b4", "Gin"),
		quarter("b5", "Gin"), half("b6", "Gin"), third("b7", "Gin"),
	}
	stock := resolver([]common.Bottle{{Name: "Gin Co", InStock: true, Tags: []string{"gin", "juniper spirit"}}}, "Lime")

	res, err := NewEngine(&fakeCatalog{local: local}, nil, stock, DefaultOptions()).FindMatches(context.Background(), bottle, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"n1", "n2", "n3", "n4", "t1", "t2", "t3", "t4", "b1", "b2"}, drinkIDs(res.Drinks))
	assert.Subset(t, drinkIDs(res.Drinks), []string{"n1", "n2", "t1", "b1"})
	assert.Equal(t, []StageTerm{
		{Stage: common.StageName, Term: "Gin Co"},
		{Stage: common.StageTag, Term: "juniper"},
		{Stage: common.StageBaseSpirit, Term: "gin"},
	}, res.Stages)
	assert.Equal(t, "Matches for Gin Co, tag juniper, base spirit gin", res.Heading())
}

func TestPrune_KeepsFullyAvailableOverTarget(t *testing.T) {
	var items []scored
	for i := 0; i < 12; i++ {
		items = append(items, scored{
			drink: common.MatchedDrink{Drink: common.Drink{ID: fmt.Sprint(i)}, MatchStage: common.StageTag},
			ratio: 100,
			full:  true,
			order: i,
		})
	}
	items = append(items, scored{
		drink: common.MatchedDrink{Drink: common.Drink{ID: "partial"}, MatchStage: common.StageName},
		ratio: 50,
		order: 12,
	})

	out := prune(items, 10)

	assert.Len(t, out, 12)
	for _, it := range out {
		assert.True(t, it.full)
	}
}

func TestFindMatches_CatalogErrorAbortsSearch(t *testing.T) {
	bottle := common.Bottle{Name: "Aperol", InStock: true}
	catalog := &fakeCatalog{sharedErr: errors.New("cockpit unreachable")}
	external := &fakeExternal{}

	res, err := NewEngine(catalog, external, resolver(nil), DefaultOptions()).FindMatches(context.Background(), bottle, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "cockpit unreachable")
	assert.Empty(t, res.Drinks)
	assert.Empty(t, res.Stages)
	assert.False(t, res.RateLimited)
	assert.Empty(t, external.calls)
}

func TestFindMatches_StopDuringExternalCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bottle := common.Bottle{Name: "Campari", Tags: []string{"bitter"}, BaseSpirit: "amaro", InStock: true}
	external := &fakeExternal{
		onCall: func(string) { cancel() },
		results: map[string][]common.Drink{
			"Campari": {drink("cocktaildb-1", "Negroni", "Campari", "Gin", "Sweet Vermouth")},
		},
	}
	catalog := &fakeCatalog{local: []common.Drink{drink("drink-1", "Bitter Spritz", "Bitter Aperitivo", "Campari")}}
	stock := resolver([]common.Bottle{bottle})

	res, err := NewEngine(catalog, external, stock, DefaultOptions()).FindMatches(ctx, bottle, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Campari"}, external.calls)
	assert.Equal(t, []string{"drink-1", "cocktaildb-1"}, drinkIDs(res.Drinks))
	assert.True(t, res.Stopped)
}

func TestFindMatches_StoppedBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	catalog := &fakeCatalog{}
	external := &fakeExternal{}
	res, err := NewEngine(catalog, external, resolver(nil), DefaultOptions()).
		FindMatches(ctx, common.Bottle{Name: "Aperol"}, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Drinks)
	assert.True(t, res.Stopped)
	assert.Zero(t, catalog.calls)
	assert.Empty(t, external.calls)
}

func TestFindMatches_ReportsProgress(t *testing.T) {
	bottle := common.Bottle{Name: "Aperol", Tags: []string{"aperitivo"}, BaseSpirit: "Liqueur", InStock: true}
	catalog := &fakeCatalog{local: []common.Drink{drink("drink-1", "Aperol Spritz", "Aperol", "Prosecco")}}

	var states []State
	var last Progress
	onProgress := func(p Progress) {
		if len(states) == 0 || states[len(states)-1] != p.State {
			states = append(states, p.State)
		}
		last = p
	}

	_, err := NewEngine(catalog, nil, resolver([]common.Bottle{bottle}), DefaultOptions()).
		FindMatches(context.Background(), bottle, onProgress)
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateSearchingLocal, StateSearchingByName, StateSearchingByTags, StateFinalizing, StateDone,
	}, states)
	assert.Equal(t, 1, last.Found)
}

func TestFindMatches_FreshStatePerCall(t *testing.T) {
	bottle := common.Bottle{Name: "Aperol", InStock: true}
	external := &fakeExternal{failAll: true}
	catalog := &fakeCatalog{local: []common.Drink{drink("drink-1", "Aperol Spritz", "Aperol", "Prosecco")}}
	engine := NewEngine(catalog, external, resolver([]common.Bottle{bottle}), DefaultOptions())

	for i := 0; i < 3; i++ {
		res, err := engine.FindMatches(context.Background(), bottle, nil)
		require.NoError(t, err)
		assert.Len(t, res.Drinks, 1)
	}
	// 每次搜尋都重新計算失敗次數
	assert.Len(t, external.calls, 3)
}

func TestResultHeading(t *testing.T) {
	d := []common.MatchedDrink{{Drink: common.Drink{ID: "x"}}}
	tests := []struct {
		name   string
		stages []StageTerm
		want   string
	}{
		{"name", []StageTerm{{common.StageName, "Aperol"}}, "Matches for Aperol"},
		{"two tags", []StageTerm{{common.StageTag, "bitter liqueur"}, {common.StageTag, "aperitivo"}}, "Matches for tag bitter liqueur and aperitivo"},
		{"three tags", []StageTerm{{common.StageTag, "a"}, {common.StageTag, "b"}, {common.StageTag, "c"}}, "Matches for tag a, b and c"},
		{"base spirit", []StageTerm{{common.StageBaseSpirit, "gin"}}, "Matches for base spirit gin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Result{Drinks: d, Stages: tt.stages}.Heading())
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	e := NewEngine(&fakeCatalog{}, nil, resolver(nil), Options{StageDelay: -1})
	assert.Equal(t, DefaultOptions(), e.Options())
}
