package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bar-inventory/internal/core/ingredient"
	"bar-inventory/internal/pkg/common"
	"bar-inventory/internal/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// genericBaseSpirit 過於籠統的基酒分類，不進行基酒階段搜尋
const genericBaseSpirit = "liqueur"

// Engine 單瓶酒譜搜尋引擎；本身不保存搜尋狀態，可併發使用
type Engine struct {
	catalog   Catalog
	external  ExternalSearcher
	evaluator Evaluator
	opts      Options
}

// NewEngine 創建搜尋引擎；external 可為 nil（只搜尋本地酒單）
func NewEngine(catalog Catalog, external ExternalSearcher, evaluator Evaluator, opts Options) *Engine {
	return &Engine{
		catalog:   catalog,
		external:  external,
		evaluator: evaluator,
		opts:      opts.withDefaults(),
	}
}

// Options 回傳實際使用的搜尋參數
func (e *Engine) Options() Options {
	return e.opts
}

// FindMatches 搜尋使用指定酒瓶的酒譜。
// 取消 ctx 即要求停止：不再發出新的外部查詢與後續階段，直接以目前累積的結果收尾；
// 已發出的請求會完成。本地酒單讀取失敗時回傳空結果與錯誤。
func (e *Engine) FindMatches(ctx context.Context, bottle common.Bottle, onProgress ProgressFunc) (Result, error) {
	s := &search{
		Engine:     e,
		ctx:        ctx,
		bottle:     bottle,
		onProgress: onProgress,
		seen:       make(map[string]struct{}),
		state:      StateIdle,
	}

	if err := s.loadCatalog(); err != nil {
		common.LogError("酒單讀取失敗，中止搜尋",
			zap.String("bottle", bottle.Name),
			zap.Error(err),
		)
		return Result{}, err
	}

	s.byName()
	s.pause()
	s.byTags()
	s.pause()
	s.byBaseSpirit()

	return s.finalize(), nil
}

// search 單次搜尋的狀態，每次呼叫重新建立
type search struct {
	*Engine
	ctx        context.Context
	bottle     common.Bottle
	onProgress ProgressFunc

	local    []common.Drink
	shared   []common.Drink
	matches  []common.MatchedDrink
	seen     map[string]struct{}
	failures int
	stopped  bool
	state    State
}

func (s *search) setState(state State, term string) {
	s.state = state
	common.LogDebug("搜尋階段",
		zap.String("bottle", s.bottle.Name),
		zap.String("stage", string(state)),
		zap.String("term", term),
		zap.Int("found", len(s.matches)),
		zap.Int("failures", s.failures),
	)
	s.report(term)
}

func (s *search) report(term string) {
	if s.onProgress != nil {
		s.onProgress(Progress{State: s.state, Term: term, Found: len(s.matches)})
	}
}

// stopRequested 是否已要求停止
func (s *search) stopRequested() bool {
	if s.stopped {
		return true
	}
	if s.ctx.Err() != nil {
		s.stopped = true
		common.LogInfo("搜尋已停止",
			zap.String("bottle", s.bottle.Name),
			zap.String("stage", string(s.state)),
			zap.Int("found", len(s.matches)),
		)
	}
	return s.stopped
}

func (s *search) budgetExhausted() bool {
	return s.failures >= s.opts.FailureBudget
}

// pause 階段間延遲，停止時立即返回
func (s *search) pause() {
	if s.opts.StageDelay <= 0 || s.stopRequested() {
		return
	}
	t := time.NewTimer(s.opts.StageDelay)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
	case <-t.C:
	}
}

// loadCatalog 同時讀取店家與共用酒單，作為所有階段的搜尋範圍
func (s *search) loadCatalog() error {
	if s.stopRequested() {
		return nil
	}
	s.setState(StateSearchingLocal, "")
	defer observe("local", time.Now())

	// 停止搜尋不取消進行中的讀取
	g, gctx := errgroup.WithContext(context.WithoutCancel(s.ctx))
	g.Go(func() error {
		drinks, err := s.catalog.FetchLocalCocktails(gctx)
		if err != nil {
			return fmt.Errorf("fetch local cocktails: %w", err)
		}
		s.local = drinks
		return nil
	})
	g.Go(func() error {
		drinks, err := s.catalog.FetchCommonCocktails(gctx)
		if err != nil {
			return fmt.Errorf("fetch common cocktails: %w", err)
		}
		s.shared = drinks
		return nil
	})
	if err := g.Wait(); err != nil {
		return common.ErrCatalogUnavailable.Wrap(err)
	}
	return nil
}

func (s *search) byName() {
	name := strings.TrimSpace(s.bottle.Name)
	if name == "" || s.stopRequested() {
		return
	}
	s.setState(StateSearchingByName, name)
	defer observe(string(common.StageName), time.Now())

	s.collect(common.StageName, name)
}

func (s *search) byTags() {
	if len(s.bottle.Tags) == 0 || s.stopRequested() {
		return
	}
	s.setState(StateSearchingByTags, "")
	defer observe(string(common.StageTag), time.Now())

	for _, raw := range s.bottle.Tags {
		if s.stopRequested() || s.budgetExhausted() {
			break
		}
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		s.setState(StateSearchingByTags, tag)
		s.collect(common.StageTag, tag)
	}
}

func (s *search) byBaseSpirit() {
	spirit := strings.TrimSpace(s.bottle.BaseSpirit)
	if spirit == "" || strings.EqualFold(spirit, genericBaseSpirit) {
		return
	}
	if s.stopRequested() {
		return
	}
	s.setState(StateSearchingByBaseSpirit, spirit)
	defer observe(string(common.StageBaseSpirit), time.Now())

	s.collect(common.StageBaseSpirit, spirit)
}

// collect 比對本地與共用酒單，數量不足時再查詢外部來源
func (s *search) collect(stage common.MatchStage, term string) {
	for _, d := range s.local {
		if usesIngredient(d, term) {
			s.add(d, common.SourceLocal, stage, term)
		}
	}
	for _, d := range s.shared {
		if usesIngredient(d, term) {
			s.add(d, common.SourceCommon, stage, term)
		}
	}
	s.report(term)

	s.searchExternal(stage, term)
}

func (s *search) searchExternal(stage common.MatchStage, term string) {
	if s.external == nil || len(s.matches) >= s.opts.ResultTarget {
		return
	}
	if s.budgetExhausted() || s.stopRequested() {
		return
	}

	drinks, err := s.external.SearchByIngredient(s.ctx, term)
	if err != nil {
		s.failures++
		common.LogWarn("外部酒譜查詢失敗",
			zap.String("bottle", s.bottle.Name),
			zap.String("stage", string(stage)),
			zap.String("term", term),
			zap.Int("failures", s.failures),
			zap.Error(err),
		)
		if s.budgetExhausted() {
			metrics.RecordBudgetExhausted()
			common.LogWarn("外部查詢連續失敗，本次搜尋不再查詢",
				zap.String("bottle", s.bottle.Name),
				zap.Int("failures", s.failures),
			)
		}
		return
	}
	s.failures = 0

	before := len(s.matches)
	for _, d := range drinks {
		if usesIngredient(d, term) {
			s.add(d, common.SourceExternal, stage, term)
		}
	}
	common.LogDebug("外部酒譜合併",
		zap.String("stage", string(stage)),
		zap.String("term", term),
		zap.Int("candidates", len(drinks)),
		zap.Int("added", len(s.matches)-before),
	)
	s.report(term)
}

// add 加入結果；已存在的酒譜保留最先比對到的階段
func (s *search) add(d common.Drink, source common.Source, stage common.MatchStage, term string) {
	key := drinkKey(d)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	d.Source = source
	s.matches = append(s.matches, common.MatchedDrink{
		Drink:       d,
		MatchStage:  stage,
		MatchedTerm: term,
	})
	common.LogDebug("加入結果",
		zap.String("drink", d.Name),
		zap.String("source", string(source)),
		zap.String("stage", string(stage)),
		zap.String("ingredients", common.FormatIngredients(d.Ingredients)),
	)
}

type scored struct {
	drink common.MatchedDrink
	ratio float64
	full  bool
	order int
}

// finalize 移除無可用材料的酒譜，超過上限時依階段由寬到窄修剪
func (s *search) finalize() Result {
	s.state = StateFinalizing
	s.report("")
	defer observe("finalize", time.Now())

	kept := make([]scored, 0, len(s.matches))
	for i, m := range s.matches {
		a := s.evaluator.Evaluate(m.Drink)
		if a.Required == 0 || a.AvailableRequired == 0 {
			continue
		}
		kept = append(kept, scored{drink: m, ratio: a.Ratio, full: a.FullyAvailable, order: i})
	}
	kept = prune(kept, s.opts.ResultTarget)

	res := Result{
		Drinks:  make([]common.MatchedDrink, 0, len(kept)),
		Stopped: s.stopped,
	}
	seenStage := map[StageTerm]bool{}
	for _, k := range kept {
		res.Drinks = append(res.Drinks, k.drink)
		st := StageTerm{Stage: k.drink.MatchStage, Term: k.drink.MatchedTerm}
		if !seenStage[st] {
			seenStage[st] = true
			res.Stages = append(res.Stages, st)
		}
	}
	res.RateLimited = len(res.Drinks) < s.opts.MinResults && s.budgetExhausted()

	s.state = StateDone
	s.report("")
	common.LogDebug("搜尋完成",
		zap.String("bottle", s.bottle.Name),
		zap.Int("collected", len(s.matches)),
		zap.Int("found", len(res.Drinks)),
		zap.Bool("rate_limited", res.RateLimited),
		zap.Bool("stopped", res.Stopped),
	)
	return res
}

// pruneOrder 修剪順序：先基酒、再標籤、最後名稱
var pruneOrder = []common.MatchStage{common.StageBaseSpirit, common.StageTag, common.StageName}

// prune 以最少移除數量降到 target；完全可調製的酒譜永不移除。
// 同階段中比例最低者先移除，同比例時後加入者先移除。
func prune(items []scored, target int) []scored {
	over := len(items) - target
	if over <= 0 {
		return items
	}

	removed := make(map[int]bool)
	for _, stage := range pruneOrder {
		if over <= 0 {
			break
		}
		var candidates []scored
		for _, it := range items {
			if it.drink.MatchStage == stage && !it.full {
				candidates = append(candidates, it)
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].ratio != candidates[j].ratio {
				return candidates[i].ratio < candidates[j].ratio
			}
			return candidates[i].order > candidates[j].order
		})
		n := min(over, len(candidates))
		for _, c := range candidates[:n] {
			removed[c.order] = true
		}
		over -= n
	}

	out := make([]scored, 0, len(items)-len(removed))
	for _, it := range items {
		if !removed[it.order] {
			out = append(out, it)
		}
	}
	return out
}

// usesIngredient 酒譜是否有材料以完整單字包含 term
func usesIngredient(d common.Drink, term string) bool {
	for _, ing := range d.Ingredients {
		if ingredient.ContainsWord(ing.Name, term) {
			return true
		}
	}
	return false
}

func drinkKey(d common.Drink) string {
	if d.ID != "" {
		return d.ID
	}
	return "name:" + ingredient.Normalize(d.Name)
}

func observe(stage string, start time.Time) {
	metrics.ObserveStage(stage, time.Since(start))
}
