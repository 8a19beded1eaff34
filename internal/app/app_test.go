package app

import (
	"testing"
	"time"

	"bar-inventory/internal/core/bar"
	"bar-inventory/internal/core/catalog"
	"bar-inventory/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Cockpit:    config.CockpitConfig{APIURL: "http://127.0.0.1:1"},
		CocktailDB: config.CocktailDBConfig{BaseURL: "http://127.0.0.1:1", APIKey: "1", MaxDetails: 10, RequestsPerSecond: 5, Burst: 5},
		Search:     config.SearchConfig{ResultTarget: 10, FailureBudget: 2, MinResults: 3},
		Cache:      config.CacheConfig{Enabled: false},
		Tenants: map[string]config.TenantConfig{
			"sample": {BarName: "Sample Bar", BarData: "sampleBar", IsSampleData: true},
			"lemon":  {BarName: "Lemonhaus", BarData: "lemonBar", IncludeCommonDrinks: true},
		},
		DefaultTenant: "sample",
	}
}

func TestNew(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "sample", a.Registry.Default().Slug)
	assert.Equal(t, []string{"lemon"}, a.Registry.Slugs())

	svc, err := a.Registry.Service("lemon")
	require.NoError(t, err)
	assert.True(t, svc.Tenant().IncludeCommonDrinks)
	assert.NotNil(t, a.Registry.Searches())
	assert.Nil(t, a.Warmer)
}

func TestNew_StartsWarmerWhenCacheEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Cache = config.CacheConfig{Enabled: true, Backend: "memory", MaxSize: 10, TTL: time.Minute, CleanupInterval: time.Minute}

	a, err := New(cfg)
	require.NoError(t, err)

	require.NotNil(t, a.Warmer)
	// CMS 無法連線，每份文件都會失敗
	require.Eventually(t, func() bool { return a.Warmer.Status().ProcessedCount == 3 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 3, a.Warmer.Status().FailedCount)
	assert.NoError(t, a.Close())
}

func TestWarmDocuments(t *testing.T) {
	docs := warmDocuments([]bar.Tenant{
		{Slug: "sample", BarData: "sampleBar"},
		{Slug: "lemon", BarData: "lemonBar", IncludeCommonDrinks: true},
		{Slug: "copy", BarData: "lemonBar"},
	})
	assert.Equal(t, []string{catalog.CommonDocument, "lemonBar", "sampleBar"}, docs)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.IngredientsFile = "does-not-exist.yaml"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.DefaultTenant = "missing"
	_, err = New(cfg)
	assert.Error(t, err)
}
