// Package app 依設定組裝快取、外部資料來源與各酒吧服務
package app

import (
	"context"
	"fmt"
	"sort"

	"bar-inventory/internal/core/bar"
	"bar-inventory/internal/core/cache"
	"bar-inventory/internal/core/catalog"
	"bar-inventory/internal/core/cocktaildb"
	"bar-inventory/internal/core/essentials"
	"bar-inventory/internal/core/ingredient"
	"bar-inventory/internal/core/matching"
	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// App 組裝完成的服務
type App struct {
	Config     *config.Config
	Store      cache.Store
	Catalog    *catalog.Client
	CocktailDB *cocktaildb.Client
	Normalizer *ingredient.Normalizer
	Registry   *bar.Registry
	Warmer     *catalog.Warmer // 快取停用時為 nil
}

// New 依設定建立所有元件；呼叫端負責 Close
func New(cfg *config.Config) (*App, error) {
	tables, err := ingredient.LoadTables(cfg.IngredientsFile)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	a := &App{
		Config:     cfg,
		Store:      store,
		Catalog:    catalog.NewClient(cfg.Cockpit, store),
		CocktailDB: cocktaildb.NewClient(cfg.CocktailDB, store),
		Normalizer: ingredient.NewNormalizer(tables),
	}

	deps := bar.Deps{
		External:   a.CocktailDB,
		Normalizer: a.Normalizer,
		Classifier: essentials.NewClassifier(),
		Searches:   bar.NewSearchRegistry(),
		Search: matching.Options{
			ResultTarget:  cfg.Search.ResultTarget,
			FailureBudget: cfg.Search.FailureBudget,
			MinResults:    cfg.Search.MinResults,
			StageDelay:    cfg.Search.StageDelay,
		},
		RandomCount: cfg.CocktailDB.RandomCount,
	}

	a.Registry, err = bar.NewRegistry(cfg.Tenants, cfg.DefaultTenant, func(t bar.Tenant) bar.BarSource {
		return a.Catalog.ForTenant(t.BarData, t.IncludeCommonDrinks)
	}, deps)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if cfg.Cache.Enabled {
		a.Warmer = catalog.NewWarmer(a.Catalog, cfg.Cockpit.WarmWorkers, 0, cfg.Cockpit.Timeout)
		a.Warmer.Start()
		a.Warmer.Schedule(context.Background(), cfg.Cockpit.WarmInterval, warmDocuments(a.Registry.Tenants()))
	}

	common.LogInfo("服務初始化完成",
		zap.Strings("tenants", a.Registry.Slugs()),
		zap.String("default_tenant", a.Registry.Default().Slug),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.String("cockpit_api_url", cfg.Cockpit.APIURL),
		zap.String("cockpit_api_key", config.MaskAPIKey(cfg.Cockpit.APIKey)),
		zap.Int("result_target", cfg.Search.ResultTarget),
		zap.Int("failure_budget", cfg.Search.FailureBudget),
	)
	return a, nil
}

// warmDocuments 所有酒吧文件，有酒吧啟用共用酒單時加上共用文件
func warmDocuments(tenants []bar.Tenant) []string {
	set := make(map[string]bool, len(tenants)+1)
	for _, t := range tenants {
		set[t.BarData] = true
		if t.IncludeCommonDrinks {
			set[catalog.CommonDocument] = true
		}
	}
	docs := make([]string, 0, len(set))
	for doc := range set {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

// Close 停止預熱並釋放快取資源
func (a *App) Close() error {
	if a.Warmer != nil {
		a.Warmer.Close()
	}
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
