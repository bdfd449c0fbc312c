package config

import (
	"os"
	"strings"
	"time"

	"hallyu-journalist/internal/failure"
	"hallyu-journalist/internal/model"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"` // text or json
}

// DatabaseConfig holds the relational store connection.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" yaml:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

// RedisConfig holds redis connection settings. An empty Addr disables redis.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Username string        `mapstructure:"username" yaml:"username"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	SeenTTL  time.Duration `mapstructure:"seen_ttl" yaml:"seen_ttl"`
}

// NaverConfig controls the Naver news search API.
type NaverConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	Display      int    `mapstructure:"display" yaml:"display"`
}

// GoogleNewsConfig controls the Google News RSS search fallback.
type GoogleNewsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Lang    string `mapstructure:"lang" yaml:"lang"`
	Region  string `mapstructure:"region" yaml:"region"`
}

// TrendSeedsConfig controls the Google Trends RSS seed keywords.
type TrendSeedsConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Limit int    `mapstructure:"limit" yaml:"limit"`
}

type SearchConfig struct {
	Naver      NaverConfig      `mapstructure:"naver" yaml:"naver"`
	GoogleNews GoogleNewsConfig `mapstructure:"google_news" yaml:"google_news"`
	TrendSeeds TrendSeedsConfig `mapstructure:"trend_seeds" yaml:"trend_seeds"`
	Timeout    time.Duration    `mapstructure:"timeout" yaml:"timeout"`
	Retries    int              `mapstructure:"retries" yaml:"retries"`
	Pause      time.Duration    `mapstructure:"pause" yaml:"pause"` // between query terms
}

// ProviderConfig is one LLM provider in fallback order.
type ProviderConfig struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Kind     string   `mapstructure:"kind" yaml:"kind"` // openai, gemini, anthropic
	APIKey   string   `mapstructure:"api_key" yaml:"api_key"`
	BaseURL  string   `mapstructure:"base_url" yaml:"base_url"`
	Models   []string `mapstructure:"models" yaml:"models"`
	Discover bool     `mapstructure:"discover" yaml:"discover"` // rank models listed by the provider
}

type LLMConfig struct {
	Providers   []ProviderConfig `mapstructure:"providers" yaml:"providers"`
	Timeout     time.Duration    `mapstructure:"timeout" yaml:"timeout"`
	MaxCalls    int              `mapstructure:"max_calls" yaml:"max_calls"` // per run
	Temperature float32          `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int              `mapstructure:"max_tokens" yaml:"max_tokens"`
}

type CloudflareConfig struct {
	AccountID string `mapstructure:"account_id" yaml:"account_id"`
	APIToken  string `mapstructure:"api_token" yaml:"api_token"`
}

type ScrapeConfig struct {
	Enabled     bool             `mapstructure:"enabled" yaml:"enabled"`
	MaxChars    int              `mapstructure:"max_chars" yaml:"max_chars"`
	Timeout     time.Duration    `mapstructure:"timeout" yaml:"timeout"`
	Concurrency int              `mapstructure:"concurrency" yaml:"concurrency"`
	ProbeImages bool             `mapstructure:"probe_images" yaml:"probe_images"`
	Cloudflare  CloudflareConfig `mapstructure:"cloudflare" yaml:"cloudflare"`
}

// Tunables are the knobs of the curation and slot policy.
type Tunables struct {
	Capacity          int     `mapstructure:"capacity" yaml:"capacity"`
	StalenessHours    float64 `mapstructure:"staleness_hours" yaml:"staleness_hours"`
	AdmissionScoreMin float64 `mapstructure:"admission_score_min" yaml:"admission_score_min"`
	BatchSize         int     `mapstructure:"batch_size" yaml:"batch_size"`
	DedupWindowHours  float64 `mapstructure:"dedup_window_hours" yaml:"dedup_window_hours"`
	MaxAgeHours       float64 `mapstructure:"max_age_hours" yaml:"max_age_hours"`
	RecomputeRanks    *bool   `mapstructure:"recompute_ranks" yaml:"recompute_ranks"`
}

func (t Tunables) Staleness() time.Duration   { return hours(t.StalenessHours) }
func (t Tunables) DedupWindow() time.Duration { return hours(t.DedupWindowHours) }
func (t Tunables) MaxAge() time.Duration      { return hours(t.MaxAgeHours) }

func (t Tunables) Ranks() bool { return t.RecomputeRanks == nil || *t.RecomputeRanks }

type BriefingConfig struct {
	OmitLink      bool    `mapstructure:"omit_link" yaml:"omit_link"`
	CooldownHours float64 `mapstructure:"cooldown_hours" yaml:"cooldown_hours"`
	SearchResults int     `mapstructure:"search_results" yaml:"search_results"`
}

func (b BriefingConfig) Cooldown() time.Duration { return hours(b.CooldownHours) }

type ArchiveConfig struct {
	TopN int `mapstructure:"top_n" yaml:"top_n"`
}

type TrendsConfig struct {
	TitleLimit  int      `mapstructure:"title_limit" yaml:"title_limit"`
	MaxKeywords int      `mapstructure:"max_keywords" yaml:"max_keywords"`
	Exclude     []string `mapstructure:"exclude" yaml:"exclude"`
}

// CategoryConfig defines one category and its curation policy.
type CategoryConfig struct {
	Name             string   `mapstructure:"name" yaml:"name"`
	Queries          []string `mapstructure:"queries" yaml:"queries"`
	ScoreBand        string   `mapstructure:"score_band" yaml:"score_band"`               // lenient or strict
	ScoreInstruction string   `mapstructure:"score_instruction" yaml:"score_instruction"` // overrides the band text
	Mode             string   `mapstructure:"mode" yaml:"mode"`                           // curate or briefing
	TrendSeeds       bool     `mapstructure:"trend_seeds" yaml:"trend_seeds"`
	BriefingRule     string   `mapstructure:"briefing_rule" yaml:"briefing_rule"`
}

type ScheduleConfig struct {
	Rotate string `mapstructure:"rotate" yaml:"rotate"`
	Trends string `mapstructure:"trends" yaml:"trends"`
	API    bool   `mapstructure:"api" yaml:"api"`
}

type APIConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Config is the top-level configuration structure.
type Config struct {
	App        AppConfig        `mapstructure:"app" yaml:"app"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Redis      RedisConfig      `mapstructure:"redis" yaml:"redis"`
	Search     SearchConfig     `mapstructure:"search" yaml:"search"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Scrape     ScrapeConfig     `mapstructure:"scrape" yaml:"scrape"`
	Curation   Tunables         `mapstructure:"curation" yaml:"curation"`
	Briefing   BriefingConfig   `mapstructure:"briefing" yaml:"briefing"`
	Archive    ArchiveConfig    `mapstructure:"archive" yaml:"archive"`
	Trends     TrendsConfig     `mapstructure:"trends" yaml:"trends"`
	Categories []CategoryConfig `mapstructure:"categories" yaml:"categories"`
	Schedule   ScheduleConfig   `mapstructure:"schedule" yaml:"schedule"`
	API        APIConfig        `mapstructure:"api" yaml:"api"`
}

const (
	ModeCurate   = "curate"
	ModeBriefing = "briefing"

	BandLenient = "lenient"
	BandStrict  = "strict"
)

// DefaultModels is used when an OpenAI-compatible provider lists nothing.
var DefaultModels = []string{"llama-3.3-70b-versatile", "mixtral-8x7b-32768"}

// DefaultCategoryConfigs mirrors the built-in rotation.
func DefaultCategoryConfigs() []CategoryConfig {
	return []CategoryConfig{
		{Name: string(model.KPop), Queries: []string{"아이돌 컴백", "빌보드 K팝", "음원 차트 1위"}, ScoreBand: BandStrict,
			BriefingRule: "Target: SONG TITLE. Search: ARTIST or GROUP NAME."},
		{Name: string(model.KDrama), Queries: []string{"드라마 시청률", "드라마 화제성", "드라마 캐스팅"}, ScoreBand: BandStrict,
			BriefingRule: "Target: DRAMA TITLE. Search: MAIN ACTOR NAME."},
		{Name: string(model.KMovie), Queries: []string{"한국 영화 박스오피스", "개봉작 반응", "영화 캐스팅"}, ScoreBand: BandStrict,
			BriefingRule: "Target: MOVIE TITLE. Search: MAIN ACTOR NAME."},
		{Name: string(model.KEntertain), Queries: []string{"예능 시청률", "예능 레전드", "예능 출연"}, ScoreBand: BandStrict,
			BriefingRule: "Target: SHOW TITLE. Search: CAST MEMBER NAME."},
		{Name: string(model.KCulture), Queries: []string{"서울 핫플레이스", "팝업스토어", "한국 여행 맛집"}, ScoreBand: BandLenient,
			BriefingRule: "Target: place, food or tradition name in English. Search: its Korean name. Exclude idols and K-pop groups."},
	}
}

// DefaultExcludedKeywords are generic words the trend analyzer drops.
var DefaultExcludedKeywords = []string{"Variety", "Actor", "K-pop", "Review", "Netizens", "Update", "Official"}

// ApplyEnv fills credentials from the conventional environment variables
// when the config file leaves them empty.
func (c *Config) ApplyEnv() {
	setIfEmpty(&c.Database.URL, os.Getenv("DATABASE_URL"))
	setIfEmpty(&c.Search.Naver.ClientID, os.Getenv("NAVER_CLIENT_ID"))
	setIfEmpty(&c.Search.Naver.ClientSecret, os.Getenv("NAVER_CLIENT_SECRET"))
	setIfEmpty(&c.Redis.Addr, os.Getenv("REDIS_ADDR"))
	setIfEmpty(&c.Scrape.Cloudflare.AccountID, os.Getenv("CLOUDFLARE_ACCOUNT_ID"))
	setIfEmpty(&c.Scrape.Cloudflare.APIToken, os.Getenv("CLOUDFLARE_API_TOKEN"))

	if len(c.LLM.Providers) > 0 {
		for i := range c.LLM.Providers {
			p := &c.LLM.Providers[i]
			if p.APIKey == "" {
				p.APIKey = os.Getenv(envKeyFor(p.Kind, p.Name))
			}
		}
		return
	}
	// No providers configured: derive the chain from whichever keys exist.
	if k := os.Getenv("GROQ_API_KEY"); k != "" {
		c.LLM.Providers = append(c.LLM.Providers, ProviderConfig{
			Name: "groq", Kind: "openai", APIKey: k, BaseURL: "https://api.groq.com/openai/v1", Discover: true,
		})
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		c.LLM.Providers = append(c.LLM.Providers, ProviderConfig{
			Name: "gemini", Kind: "gemini", APIKey: k, Models: []string{"gemini-1.5-flash"},
		})
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		c.LLM.Providers = append(c.LLM.Providers, ProviderConfig{
			Name: "anthropic", Kind: "anthropic", APIKey: k, Models: []string{"claude-3-5-haiku-latest"},
		})
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		c.LLM.Providers = append(c.LLM.Providers, ProviderConfig{
			Name: "openai", Kind: "openai", APIKey: k, Models: []string{"gpt-4o-mini"},
		})
	}
}

func envKeyFor(kind, name string) string {
	switch strings.ToLower(name) {
	case "groq":
		return "GROQ_API_KEY"
	}
	switch strings.ToLower(kind) {
	case "gemini":
		return "GEMINI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "text"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 5
	}
	if c.Redis.SeenTTL == 0 {
		c.Redis.SeenTTL = 72 * time.Hour
	}
	if c.Search.Naver.BaseURL == "" {
		c.Search.Naver.BaseURL = "https://openapi.naver.com"
	}
	if c.Search.Naver.Display == 0 {
		c.Search.Naver.Display = 20
	}
	if c.Search.GoogleNews.BaseURL == "" {
		c.Search.GoogleNews.BaseURL = "https://news.google.com/rss/search"
	}
	if c.Search.GoogleNews.Lang == "" {
		c.Search.GoogleNews.Lang = "ko"
	}
	if c.Search.GoogleNews.Region == "" {
		c.Search.GoogleNews.Region = "KR"
	}
	if c.Search.TrendSeeds.URL == "" {
		c.Search.TrendSeeds.URL = "https://trends.google.com/trending/rss?geo=KR"
	}
	if c.Search.TrendSeeds.Limit == 0 {
		c.Search.TrendSeeds.Limit = 3
	}
	if c.Search.Timeout == 0 {
		c.Search.Timeout = 10 * time.Second
	}
	if c.Search.Retries == 0 {
		c.Search.Retries = 2
	}
	if c.Search.Pause == 0 {
		c.Search.Pause = 500 * time.Millisecond
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.LLM.MaxCalls == 0 {
		c.LLM.MaxCalls = 40
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.4
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 8192
	}
	for i := range c.LLM.Providers {
		p := &c.LLM.Providers[i]
		if p.Kind == "" {
			p.Kind = "openai"
		}
		if p.Name == "" {
			p.Name = p.Kind
		}
	}
	if c.Scrape.MaxChars == 0 {
		c.Scrape.MaxChars = 1500
	}
	c.Scrape.MaxChars = clamp(c.Scrape.MaxChars, 1000, 3000)
	if c.Scrape.Timeout == 0 {
		c.Scrape.Timeout = 5 * time.Second
	}
	if c.Scrape.Concurrency == 0 {
		c.Scrape.Concurrency = 4
	}
	if c.Curation.Capacity == 0 {
		c.Curation.Capacity = 30
	}
	if c.Curation.StalenessHours == 0 {
		c.Curation.StalenessHours = 24
	}
	if c.Curation.AdmissionScoreMin == 0 {
		c.Curation.AdmissionScoreMin = 4.0
	}
	if c.Curation.BatchSize == 0 {
		c.Curation.BatchSize = 60
	}
	c.Curation.BatchSize = clamp(c.Curation.BatchSize, 50, 70)
	if c.Curation.DedupWindowHours == 0 {
		c.Curation.DedupWindowHours = 72
	}
	if c.Curation.MaxAgeHours == 0 {
		c.Curation.MaxAgeHours = 24
	}
	if c.Briefing.CooldownHours == 0 {
		c.Briefing.CooldownHours = 4
	}
	if c.Briefing.SearchResults == 0 {
		c.Briefing.SearchResults = 5
	}
	if c.Archive.TopN == 0 {
		c.Archive.TopN = 10
	}
	if c.Trends.TitleLimit == 0 {
		c.Trends.TitleLimit = 100
	}
	if c.Trends.MaxKeywords == 0 {
		c.Trends.MaxKeywords = 10
	}
	if len(c.Trends.Exclude) == 0 {
		c.Trends.Exclude = append([]string(nil), DefaultExcludedKeywords...)
	}
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategoryConfigs()
	}
	for i := range c.Categories {
		cat := &c.Categories[i]
		cat.Name = strings.ToLower(strings.TrimSpace(cat.Name))
		if cat.Mode == "" {
			cat.Mode = ModeCurate
		}
		if cat.ScoreBand == "" {
			cat.ScoreBand = BandStrict
			if cat.Name == string(model.KCulture) {
				cat.ScoreBand = BandLenient
			}
		}
	}
	if c.Schedule.Rotate == "" {
		c.Schedule.Rotate = "12,42 * * * *"
	}
	if c.Schedule.Trends == "" {
		c.Schedule.Trends = "@hourly"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"http://localhost:3000"}
	}
}

// Validate reports fatal configuration problems. requireDB is false for dry runs.
func (c *Config) Validate(requireDB bool) error {
	if requireDB && strings.TrimSpace(c.Database.URL) == "" {
		return failure.Config("config", "database.url (or DATABASE_URL) is required")
	}
	naver := c.Search.Naver.ClientID != "" && c.Search.Naver.ClientSecret != ""
	if !naver && !c.Search.GoogleNews.Enabled {
		return failure.Config("config", "no search provider: set search.naver credentials or enable search.google_news")
	}
	usable := 0
	for _, p := range c.LLM.Providers {
		switch strings.ToLower(p.Kind) {
		case "openai", "gemini", "anthropic":
		default:
			return failure.Config("config", "llm provider %q has unknown kind %q", p.Name, p.Kind)
		}
		if p.APIKey != "" {
			usable++
		}
	}
	if usable == 0 {
		return failure.Config("config", "no llm provider with an api key configured")
	}
	seen := map[string]bool{}
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return failure.Config("config", "category without a name")
		}
		if seen[cat.Name] {
			return failure.Config("config", "duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		if len(cat.Queries) == 0 && !cat.TrendSeeds {
			return failure.Config("config", "category %q has no queries", cat.Name)
		}
		if cat.Mode != ModeCurate && cat.Mode != ModeBriefing {
			return failure.Config("config", "category %q has unknown mode %q", cat.Name, cat.Mode)
		}
		if cat.ScoreBand != BandLenient && cat.ScoreBand != BandStrict {
			return failure.Config("config", "category %q has unknown score_band %q", cat.Name, cat.ScoreBand)
		}
	}
	if c.Curation.Capacity <= 0 {
		return failure.Config("config", "curation.capacity must be positive")
	}
	if c.Curation.AdmissionScoreMin < 0 || c.Curation.AdmissionScoreMin > 10 {
		return failure.Config("config", "curation.admission_score_min must be within [0,10]")
	}
	return nil
}

// Category looks up a configured category by name.
func (c *Config) Category(name string) (CategoryConfig, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return CategoryConfig{}, false
}

// CategoryNames returns the configured categories in rotation order.
func (c *Config) CategoryNames() []model.Category {
	out := make([]model.Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		out = append(out, model.Category(cat.Name))
	}
	return out
}

// ScorePolicies maps each category to its score band name.
func (c *Config) ScorePolicies() map[model.Category]string {
	out := make(map[model.Category]string, len(c.Categories))
	for _, cat := range c.Categories {
		out[model.Category(cat.Name)] = cat.ScoreBand
	}
	return out
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	c.Database.URL = mask(c.Database.URL)
	c.Redis.Password = mask(c.Redis.Password)
	c.Search.Naver.ClientSecret = mask(c.Search.Naver.ClientSecret)
	c.Scrape.Cloudflare.APIToken = mask(c.Scrape.Cloudflare.APIToken)
	providers := make([]ProviderConfig, len(c.LLM.Providers))
	for i, p := range c.LLM.Providers {
		p.APIKey = mask(p.APIKey)
		providers[i] = p
	}
	c.LLM.Providers = providers
	return c
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
