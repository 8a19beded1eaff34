// Package bar 多酒吧服務：租戶設定、庫存快照、可調製酒單與單瓶搜尋
package bar

import (
	"fmt"
	"sort"
	"strings"

	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"
)

// Tenant 酒吧設定
type Tenant struct {
	Slug                   string `json:"slug"`
	BarName                string `json:"bar_name"`
	BarData                string `json:"-"`
	Description            string `json:"description,omitempty"`
	OGImage                string `json:"og_image,omitempty"`
	IncludeCommonDrinks    bool   `json:"include_common_drinks"`
	IncludeRandomCocktails bool   `json:"include_random_cocktails"`
	IsSampleData           bool   `json:"is_sample_data"`
}

// SourceFactory 依酒吧建立資料來源
type SourceFactory func(t Tenant) BarSource

// Registry 酒吧清單與各自的服務
type Registry struct {
	tenants     map[string]Tenant
	services    map[string]*Service
	searches    *SearchRegistry
	defaultSlug string
}

// NewRegistry 依設定建立所有酒吧的服務
func NewRegistry(tenants map[string]config.TenantConfig, defaultSlug string, sourceFor SourceFactory, deps Deps) (*Registry, error) {
	if len(tenants) == 0 {
		return nil, fmt.Errorf("no tenants configured")
	}

	// 所有酒吧共用同一份搜尋登記表，搜尋 ID 全域唯一
	if deps.Searches == nil {
		deps.Searches = NewSearchRegistry()
	}

	r := &Registry{
		tenants:     make(map[string]Tenant, len(tenants)),
		services:    make(map[string]*Service, len(tenants)),
		searches:    deps.Searches,
		defaultSlug: normalizeSlug(defaultSlug),
	}
	for slug, tc := range tenants {
		t := Tenant{
			Slug:                   normalizeSlug(slug),
			BarName:                tc.BarName,
			BarData:                tc.BarData,
			Description:            tc.Description,
			OGImage:                tc.OGImage,
			IncludeCommonDrinks:    tc.IncludeCommonDrinks,
			IncludeRandomCocktails: tc.IncludeRandomCocktails,
			IsSampleData:           tc.IsSampleData,
		}
		r.tenants[t.Slug] = t
		r.services[t.Slug] = NewService(t, sourceFor(t), deps)
	}
	if _, ok := r.tenants[r.defaultSlug]; !ok {
		return nil, fmt.Errorf("default tenant %q is not configured", defaultSlug)
	}
	return r, nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// Get 取得酒吧設定
func (r *Registry) Get(slug string) (Tenant, bool) {
	t, ok := r.tenants[normalizeSlug(slug)]
	return t, ok
}

// Default 預設酒吧（範例資料）
func (r *Registry) Default() Tenant {
	return r.tenants[r.defaultSlug]
}

// IsValid 是否為已設定的酒吧
func (r *Registry) IsValid(slug string) bool {
	_, ok := r.Get(slug)
	return ok
}

// Slugs 正式酒吧（不含範例資料），依字母排序
func (r *Registry) Slugs() []string {
	return r.slugs(func(t Tenant) bool { return !t.IsSampleData })
}

// SampleSlugs 範例資料酒吧
func (r *Registry) SampleSlugs() []string {
	return r.slugs(func(t Tenant) bool { return t.IsSampleData })
}

func (r *Registry) slugs(keep func(Tenant) bool) []string {
	out := make([]string, 0, len(r.tenants))
	for slug, t := range r.tenants {
		if keep(t) {
			out = append(out, slug)
		}
	}
	sort.Strings(out)
	return out
}

// Tenants 所有酒吧，依 slug 排序
func (r *Registry) Tenants() []Tenant {
	out := make([]Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Service 取得酒吧服務
func (r *Registry) Service(slug string) (*Service, error) {
	s, ok := r.services[normalizeSlug(slug)]
	if !ok {
		return nil, common.ErrTenantNotFound
	}
	return s, nil
}

// Searches 搜尋登記表
func (r *Registry) Searches() *SearchRegistry {
	return r.searches
}
