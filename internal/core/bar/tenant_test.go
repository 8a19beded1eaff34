package bar

import (
	"testing"

	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTenants() map[string]config.TenantConfig {
	return map[string]config.TenantConfig{
		"sample": {BarName: "Sample Bar", BarData: "sampleBar", IncludeCommonDrinks: true, IncludeRandomCocktails: true, IsSampleData: true},
		"victor": {BarName: "Victor's Place", BarData: "barVictor", IncludeCommonDrinks: true},
		"lemon":  {BarName: "Lemonhaus", BarData: "lemonBar", OGImage: "/opengraph-lemon.png"},
	}
}

func newTestRegistry(t *testing.T) (*Registry, map[string]string) {
	docs := make(map[string]string)
	r, err := NewRegistry(testTenants(), "sample", func(tn Tenant) BarSource {
		docs[tn.Slug] = tn.BarData
		return &fakeSource{data: sampleBar()}
	}, Deps{})
	require.NoError(t, err)
	return r, docs
}

func TestRegistry_Lookup(t *testing.T) {
	r, docs := newTestRegistry(t)

	assert.Equal(t, map[string]string{"sample": "sampleBar", "victor": "barVictor", "lemon": "lemonBar"}, docs)

	tn, ok := r.Get(" Lemon ")
	require.True(t, ok)
	assert.Equal(t, "Lemonhaus", tn.BarName)
	assert.Equal(t, "/opengraph-lemon.png", tn.OGImage)

	assert.True(t, r.IsValid("victor"))
	assert.False(t, r.IsValid("unknown"))
	assert.Equal(t, "sample", r.Default().Slug)
}

func TestRegistry_Slugs(t *testing.T) {
	r, _ := newTestRegistry(t)

	assert.Equal(t, []string{"lemon", "victor"}, r.Slugs())
	assert.Equal(t, []string{"sample"}, r.SampleSlugs())

	all := r.Tenants()
	require.Len(t, all, 3)
	assert.Equal(t, "lemon", all[0].Slug)
}

func TestRegistry_Service(t *testing.T) {
	r, _ := newTestRegistry(t)

	svc, err := r.Service("VICTOR")
	require.NoError(t, err)
	assert.Equal(t, "victor", svc.Tenant().Slug)
	assert.True(t, svc.Tenant().IncludeCommonDrinks)

	other, err := r.Service("lemon")
	require.NoError(t, err)
	assert.Same(t, r.Searches(), svc.Searches())
	assert.Same(t, r.Searches(), other.Searches())

	_, err = r.Service("nowhere")
	assert.ErrorIs(t, err, common.ErrTenantNotFound)
}

func TestNewRegistry_Errors(t *testing.T) {
	factory := func(Tenant) BarSource { return &fakeSource{} }

	_, err := NewRegistry(nil, "sample", factory, Deps{})
	assert.Error(t, err)

	_, err = NewRegistry(testTenants(), "missing", factory, Deps{})
	assert.Error(t, err)
}
