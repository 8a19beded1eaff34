package bar

import (
	"context"
	"strings"

	"bar-inventory/internal/core/availability"
	"bar-inventory/internal/core/catalog"
	"bar-inventory/internal/core/essentials"
	"bar-inventory/internal/core/ingredient"
	"bar-inventory/internal/core/matching"
	"bar-inventory/internal/core/ranking"
	"bar-inventory/internal/pkg/common"
	"bar-inventory/internal/pkg/metrics"

	"go.uber.org/zap"
)

// BarSource 酒吧資料來源
type BarSource interface {
	matching.Catalog
	FetchBarData(ctx context.Context) (*catalog.BarData, error)
}

// ExternalSource 外部酒譜來源
type ExternalSource interface {
	matching.ExternalSearcher
	Random(ctx context.Context, n int) ([]common.Drink, error)
}

// Deps 各酒吧共用的元件
type Deps struct {
	External    ExternalSource // 可為 nil
	Normalizer  *ingredient.Normalizer
	Classifier  *essentials.Classifier
	Searches    *SearchRegistry
	Search      matching.Options
	RandomCount int
}

// Service 單一酒吧的服務
type Service struct {
	tenant      Tenant
	source      BarSource
	external    ExternalSource
	normalizer  *ingredient.Normalizer
	classifier  *essentials.Classifier
	searches    *SearchRegistry
	opts        matching.Options
	randomCount int
}

// NewService 創建酒吧服務
func NewService(t Tenant, source BarSource, deps Deps) *Service {
	if deps.Normalizer == nil {
		deps.Normalizer = ingredient.NewNormalizer(nil)
	}
	if deps.Classifier == nil {
		deps.Classifier = essentials.NewClassifier()
	}
	if deps.Searches == nil {
		deps.Searches = NewSearchRegistry()
	}
	return &Service{
		tenant:      t,
		source:      source,
		external:    deps.External,
		normalizer:  deps.Normalizer,
		classifier:  deps.Classifier,
		searches:    deps.Searches,
		opts:        deps.Search,
		randomCount: deps.RandomCount,
	}
}

// Tenant 酒吧設定
func (s *Service) Tenant() Tenant {
	return s.tenant
}

// Snapshot 單次查詢使用的庫存快照
type Snapshot struct {
	Data       *catalog.BarData
	Essentials []common.Essential
	Resolver   *availability.Resolver
}

// Snapshot 讀取酒吧資料並建立庫存判斷器
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	data, err := s.source.FetchBarData(ctx)
	if err != nil {
		common.LogError("酒吧資料讀取失敗",
			zap.String("tenant", s.tenant.Slug),
			zap.Error(err),
		)
		return nil, common.ErrCatalogUnavailable.Wrap(err)
	}

	items := s.classifier.FromNames(data.Essentials)
	inv := availability.Inventory{Bottles: data.Bottles, Essentials: items}
	return &Snapshot{
		Data:       data,
		Essentials: items,
		Resolver:   availability.NewResolver(s.normalizer, inv),
	}, nil
}

// Inventory 酒瓶清單
func (s *Service) Inventory(ctx context.Context) ([]common.Bottle, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Data.Bottles, nil
}

// Beverages 啤酒與葡萄酒
func (s *Service) Beverages(ctx context.Context) ([]catalog.Beverage, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Data.Beverages, nil
}

// EssentialsByCategory 基本材料依分類分組
func (s *Service) EssentialsByCategory(ctx context.Context) ([]essentials.Group, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.classifier.GroupByCategory(snap.Essentials), nil
}

// DrinkView 酒譜與其庫存狀況
type DrinkView struct {
	common.Drink
	Availability availability.Availability `json:"availability"`
	Favorited    bool                      `json:"favorited"`
}

// drinks 店家酒單，加上共用與隨機酒譜（依酒吧設定），以 ID 去重
func (s *Service) drinks(ctx context.Context, snap *Snapshot) ([]common.Drink, error) {
	all := append([]common.Drink(nil), snap.Data.Drinks...)

	if s.tenant.IncludeCommonDrinks {
		shared, err := s.source.FetchCommonCocktails(ctx)
		if err != nil {
			return nil, common.ErrCatalogUnavailable.Wrap(err)
		}
		all = append(all, shared...)
	}

	if s.tenant.IncludeRandomCocktails && s.external != nil && s.randomCount > 0 {
		random, err := s.external.Random(ctx, s.randomCount)
		if err != nil {
			// 隨機酒譜只是補充，失敗不影響酒單
			common.LogWarn("隨機酒譜取得失敗", zap.String("tenant", s.tenant.Slug), zap.Error(err))
		}
		all = append(all, random...)
	}

	seen := make(map[string]bool, len(all))
	out := all[:0]
	for _, d := range all {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	return out, nil
}

// AvailableDrinks 目前可調製的酒譜，依可調製程度、收藏與名稱排序
func (s *Service) AvailableDrinks(ctx context.Context, favorites []string) ([]DrinkView, error) {
	return s.listDrinks(ctx, favorites, true)
}

// DrinksWithAvailability 所有酒譜與其庫存狀況
func (s *Service) DrinksWithAvailability(ctx context.Context, favorites []string) ([]DrinkView, error) {
	return s.listDrinks(ctx, favorites, false)
}

func (s *Service) listDrinks(ctx context.Context, favorites []string, onlyAvailable bool) ([]DrinkView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.drinks(ctx, snap)
	if err != nil {
		return nil, err
	}
	if onlyAvailable {
		all = snap.Resolver.AvailableDrinks(all)
	}

	isFavorited := favoriteSet(favorites)
	sorted := ranking.SortCocktailsByAvailability(all, snap.Resolver.IsInStock, isFavorited)

	views := make([]DrinkView, len(sorted))
	for i, d := range sorted {
		views[i] = DrinkView{
			Drink:        d,
			Availability: snap.Resolver.Evaluate(d),
			Favorited:    isFavorited(d.ID),
		}
	}
	return views, nil
}

// MatchView 搜尋結果中的單一酒譜
type MatchView struct {
	common.MatchedDrink
	Availability availability.Availability `json:"availability"`
	Favorited    bool                      `json:"favorited"`
}

// MatchResult 單瓶搜尋結果
type MatchResult struct {
	SearchID    string               `json:"search_id"`
	Bottle      common.Bottle        `json:"bottle"`
	Heading     string               `json:"heading"`
	Drinks      []MatchView          `json:"drinks"`
	Stages      []matching.StageTerm `json:"stages"`
	RateLimited bool                 `json:"rate_limited"`
	Stopped     bool                 `json:"stopped"`
}

// FindMatches 搜尋使用指定酒瓶的酒譜。searchID 為空時自動產生；
// 搜尋期間可透過 Searches().Stop(searchID) 要求停止。
func (s *Service) FindMatches(ctx context.Context, searchID, bottleID string, favorites []string) (*MatchResult, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		metrics.RecordSearch(s.tenant.Slug, "error", 0)
		return nil, err
	}

	bottle, ok := findBottle(snap.Data.Bottles, bottleID)
	if !ok {
		return nil, common.ErrBottleNotFound
	}

	searchCtx, handle, err := s.searches.Start(ctx, searchID, s.tenant.Slug, bottle.Name)
	if err != nil {
		return nil, err
	}
	defer handle.Done()

	common.LogInfo("開始搜尋酒譜",
		zap.String("tenant", s.tenant.Slug),
		zap.String("search_id", handle.ID()),
		zap.String("bottle", bottle.Name),
	)

	var external matching.ExternalSearcher
	if s.external != nil {
		external = s.external
	}
	engine := matching.NewEngine(s.source, external, snap.Resolver, s.opts)
	result, err := engine.FindMatches(searchCtx, bottle, handle.Report)
	if err != nil {
		metrics.RecordSearch(s.tenant.Slug, "error", 0)
		return nil, err
	}

	isFavorited := favoriteSet(favorites)
	sorted := ranking.SortMatches(result.Drinks, snap.Resolver.IsInStock, isFavorited)
	views := make([]MatchView, len(sorted))
	for i, d := range sorted {
		views[i] = MatchView{
			MatchedDrink: d,
			Availability: snap.Resolver.Evaluate(d.Drink),
			Favorited:    isFavorited(d.ID),
		}
	}

	metrics.RecordSearch(s.tenant.Slug, outcome(result), len(views))
	common.LogInfo("搜尋完成",
		zap.String("tenant", s.tenant.Slug),
		zap.String("search_id", handle.ID()),
		zap.String("bottle", bottle.Name),
		zap.Int("found", len(views)),
		zap.Bool("rate_limited", result.RateLimited),
		zap.Bool("stopped", result.Stopped),
	)

	return &MatchResult{
		SearchID:    handle.ID(),
		Bottle:      bottle,
		Heading:     result.Heading(),
		Drinks:      views,
		Stages:      result.Stages,
		RateLimited: result.RateLimited,
		Stopped:     result.Stopped,
	}, nil
}

// Searches 搜尋登記表
func (s *Service) Searches() *SearchRegistry {
	return s.searches
}

func outcome(r matching.Result) string {
	switch {
	case r.Stopped:
		return "stopped"
	case r.RateLimited:
		return "rate_limited"
	case len(r.Drinks) == 0:
		return "empty"
	default:
		return "ok"
	}
}

func findBottle(bottles []common.Bottle, id string) (common.Bottle, bool) {
	id = strings.TrimSpace(id)
	for _, b := range bottles {
		if b.ID == id {
			return b, true
		}
	}
	return common.Bottle{}, false
}

func favoriteSet(ids []string) ranking.FavoritedFunc {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(id string) bool { return set[id] }
}
