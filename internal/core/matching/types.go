// Package matching 單瓶酒譜搜尋：依名稱、標籤、基酒三個階段逐步放寬，
// 合併店家、共用與外部來源，並在結果上限內依精確度修剪
package matching

import (
	"context"
	"time"

	"bar-inventory/internal/core/availability"
	"bar-inventory/internal/pkg/common"
)

// Catalog 本地酒單來源；錯誤會中止整次搜尋
type Catalog interface {
	FetchLocalCocktails(ctx context.Context) ([]common.Drink, error)
	FetchCommonCocktails(ctx context.Context) ([]common.Drink, error)
}

// ExternalSearcher 外部酒譜查詢；查無資料回傳空列表，錯誤計入失敗預算
type ExternalSearcher interface {
	SearchByIngredient(ctx context.Context, term string) ([]common.Drink, error)
}

// Evaluator 計算酒譜在目前庫存下的可調製狀況
type Evaluator interface {
	Evaluate(d common.Drink) availability.Availability
}

// State 搜尋狀態
type State string

const (
	StateIdle                  State = "idle"
	StateSearchingLocal        State = "searchingLocal"
	StateSearchingByName       State = "searchingByName"
	StateSearchingByTags       State = "searchingByTags"
	StateSearchingByBaseSpirit State = "searchingByBaseSpirit"
	StateFinalizing            State = "finalizing"
	StateDone                  State = "done"
)

// Progress 搜尋進度
type Progress struct {
	State State  `json:"state"`
	Term  string `json:"term,omitempty"`
	Found int    `json:"found"`
}

// ProgressFunc 進度回呼，於搜尋 goroutine 中同步呼叫
type ProgressFunc func(Progress)

// Options 搜尋參數
type Options struct {
	ResultTarget  int           // 結果上限，同時是外部查詢門檻
	FailureBudget int           // 連續外部失敗上限
	MinResults    int           // 低於此數且預算耗盡時標記 RateLimited
	StageDelay    time.Duration // 階段間延遲
}

// DefaultOptions 預設搜尋參數
func DefaultOptions() Options {
	return Options{
		ResultTarget:  10,
		FailureBudget: 2,
		MinResults:    3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ResultTarget <= 0 {
		o.ResultTarget = d.ResultTarget
	}
	if o.FailureBudget <= 0 {
		o.FailureBudget = d.FailureBudget
	}
	if o.MinResults <= 0 {
		o.MinResults = d.MinResults
	}
	if o.StageDelay < 0 {
		o.StageDelay = 0
	}
	return o
}
