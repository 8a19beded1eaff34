package matching

import (
	"strings"

	"bar-inventory/internal/pkg/common"
)

// StageTerm 修剪後仍有結果的階段與關鍵字
type StageTerm struct {
	Stage common.MatchStage `json:"stage"`
	Term  string            `json:"term"`
}

// Result 搜尋結果
type Result struct {
	Drinks      []common.MatchedDrink `json:"drinks"`
	Stages      []StageTerm           `json:"stages"`
	RateLimited bool                  `json:"rate_limited"` // 外部查詢受限，結果可能不完整
	Stopped     bool                  `json:"stopped"`
}

// Heading 結果標題，例如 "Matches for tag bitter liqueur and aperitivo"
func (r Result) Heading() string {
	if len(r.Drinks) == 0 {
		return "No matches found"
	}

	var names, tags, spirits []string
	for _, st := range r.Stages {
		switch st.Stage {
		case common.StageName:
			names = append(names, st.Term)
		case common.StageTag:
			tags = append(tags, st.Term)
		case common.StageBaseSpirit:
			spirits = append(spirits, st.Term)
		}
	}

	var parts []string
	if len(names) > 0 {
		parts = append(parts, joinAnd(names))
	}
	if len(tags) > 0 {
		parts = append(parts, "tag "+joinAnd(tags))
	}
	if len(spirits) > 0 {
		parts = append(parts, "base spirit "+joinAnd(spirits))
	}
	return "Matches for " + strings.Join(parts, ", ")
}

func joinAnd(terms []string) string {
	switch len(terms) {
	case 0:
		return ""
	case 1:
		return terms[0]
	default:
		return strings.Join(terms[:len(terms)-1], ", ") + " and " + terms[len(terms)-1]
	}
}
