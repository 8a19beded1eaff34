package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App             AppConfig               `mapstructure:"app"`
	Server          ServerConfig            `mapstructure:"server"`
	Cockpit         CockpitConfig           `mapstructure:"cockpit"`
	CocktailDB      CocktailDBConfig        `mapstructure:"cocktaildb"`
	Search          SearchConfig            `mapstructure:"search"`
	Cache           CacheConfig             `mapstructure:"cache"`
	Redis           RedisConfig             `mapstructure:"redis"`
	RateLimit       RateLimitConfig         `mapstructure:"rate_limit"`
	Tenants         map[string]TenantConfig `mapstructure:"tenants"`
	DefaultTenant   string                  `mapstructure:"default_tenant"`
	IngredientsFile string                  `mapstructure:"ingredients_file"`
	DedupWindow     time.Duration           `mapstructure:"dedup_window"`
	LogLevel        string                  `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodySize  int64         `mapstructure:"max_body_size"`
}

// CockpitConfig 內容管理系統設定
type CockpitConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	APIKey      string        `mapstructure:"api_key"`
	AssetURL    string        `mapstructure:"asset_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	FallbackDir string        `mapstructure:"fallback_dir"`
	// 背景預熱 CMS 文件快取（僅在快取啟用時）
	WarmWorkers  int           `mapstructure:"warm_workers"`
	WarmInterval time.Duration `mapstructure:"warm_interval"`
}

// CocktailDBConfig 外部酒譜查詢設定
type CocktailDBConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxDetails        int           `mapstructure:"max_details"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	RandomCount       int           `mapstructure:"random_count"`
}

// SearchConfig 比對引擎設定
type SearchConfig struct {
	ResultTarget  int           `mapstructure:"result_target"`
	FailureBudget int           `mapstructure:"failure_budget"`
	MinResults    int           `mapstructure:"min_results"`
	StageDelay    time.Duration `mapstructure:"stage_delay"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Backend         string        `mapstructure:"backend"` // memory | redis | badger
	Dir             string        `mapstructure:"dir"`     // badger 資料目錄
}

// RedisConfig Redis 設定，啟用時取代記憶體快取
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// TenantConfig 酒吧設定
type TenantConfig struct {
	BarName                string `mapstructure:"bar_name"`
	BarData                string `mapstructure:"bar_data"`
	Description            string `mapstructure:"description"`
	OGImage                string `mapstructure:"og_image"`
	IncludeCommonDrinks    bool   `mapstructure:"include_common_drinks"`
	IncludeRandomCocktails bool   `mapstructure:"include_random_cocktails"`
	IsSampleData           bool   `mapstructure:"is_sample_data"`
}

// LoadConfig 載入設定；.env 由 main 事先載入，找不到設定檔不視為錯誤
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"cockpit.api_url":                "COCKPIT_API_URL",
		"cockpit.api_key":                "COCKPIT_API_KEY",
		"cockpit.fallback_dir":           "COCKPIT_FALLBACK_DIR",
		"cockpit.warm_interval":          "COCKPIT_WARM_INTERVAL",
		"cocktaildb.api_key":             "COCKTAILDB_API_KEY",
		"cache.enabled":                  "CACHE_ENABLED",
		"cache.backend":                  "CACHE_BACKEND",
		"cache.dir":                      "CACHE_DIR",
		"redis.enabled":                  "REDIS_ENABLED",
		"redis.addr":                     "REDIS_ADDR",
		"redis.password":                 "REDIS_PASSWORD",
		"rate_limit.enabled":             "RATE_LIMIT_ENABLED",
		"rate_limit.requests":            "RATE_LIMIT_REQUESTS",
		"rate_limit.window":              "RATE_LIMIT_WINDOW",
		"search.stage_delay":             "SEARCH_STAGE_DELAY",
		"cocktaildb.max_details":         "COCKTAILDB_MAX_DETAILS",
		"cocktaildb.requests_per_second": "COCKTAILDB_RPS",
		"ingredients_file":               "INGREDIENTS_FILE",
		"dedup_window":                   "DEDUP_WINDOW",
		"log_level":                      "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 選用的 YAML 設定檔（租戶清單等）
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "bar-inventory")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_size", 1<<20) // 1MB

	// Cockpit 設定
	v.SetDefault("cockpit.api_url", "https://hirelemon.com/bar/api")
	v.SetDefault("cockpit.asset_url", "https://hirelemon.com/bar/storage/uploads")
	v.SetDefault("cockpit.timeout", "15s")
	v.SetDefault("cockpit.warm_workers", 2)
	v.SetDefault("cockpit.warm_interval", "30m")

	// CocktailDB 設定
	v.SetDefault("cocktaildb.base_url", "https://www.thecocktaildb.com/api/json/v1")
	v.SetDefault("cocktaildb.api_key", "1")
	v.SetDefault("cocktaildb.timeout", "10s")
	v.SetDefault("cocktaildb.max_details", 10)
	v.SetDefault("cocktaildb.requests_per_second", 3)
	v.SetDefault("cocktaildb.burst", 5)
	v.SetDefault("cocktaildb.random_count", 8)

	// 比對引擎設定
	v.SetDefault("search.result_target", 10)
	v.SetDefault("search.failure_budget", 2)
	v.SetDefault("search.min_results", 3)
	v.SetDefault("search.stage_delay", "0s")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.dir", "data/cache")

	// Redis 設定
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")

	// 租戶設定
	v.SetDefault("default_tenant", "sample")
	v.SetDefault("tenants", map[string]interface{}{
		"sample": map[string]interface{}{
			"bar_name":                 "Sample Bar",
			"bar_data":                 "sampleBar",
			"description":              "Explore our sample bar inventory - spirits, cocktails, beer, and wine. Check what's available now!",
			"include_common_drinks":    true,
			"include_random_cocktails": true,
			"is_sample_data":           true,
		},
		"lemon": map[string]interface{}{
			"bar_name":                 "Lemonhaus",
			"bar_data":                 "lemonBar",
			"description":              "See the drinks you can order if you go to lemon's bar.",
			"og_image":                 "/opengraph-lemon.png",
			"include_common_drinks":    true,
			"include_random_cocktails": false,
		},
		"victor": map[string]interface{}{
			"bar_name":                 "Victor's Place",
			"bar_data":                 "barVictor",
			"description":              "Victor's Place - Your destination for premium spirits, expertly crafted cocktails, and fine wine selection. Check availability now!",
			"include_common_drinks":    true,
			"include_random_cocktails": true,
		},
	})
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Search.ResultTarget <= 0 {
		return fmt.Errorf("invalid search result target")
	}
	if config.Search.FailureBudget <= 0 {
		return fmt.Errorf("invalid search failure budget")
	}
	if config.Search.StageDelay < 0 {
		return fmt.Errorf("invalid search stage delay")
	}

	if config.CocktailDB.MaxDetails <= 0 {
		return fmt.Errorf("invalid cocktaildb max details")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
		switch strings.ToLower(config.Cache.Backend) {
		case "", "memory", "redis", "badger":
		default:
			return fmt.Errorf("invalid cache backend %q", config.Cache.Backend)
		}
	}

	if len(config.Tenants) == 0 {
		return fmt.Errorf("at least one tenant is required")
	}
	for slug, t := range config.Tenants {
		if strings.TrimSpace(t.BarData) == "" {
			return fmt.Errorf("tenant %q: bar_data is required", slug)
		}
	}
	if _, ok := config.Tenants[config.DefaultTenant]; !ok {
		return fmt.Errorf("default tenant %q is not configured", config.DefaultTenant)
	}

	return nil
}
