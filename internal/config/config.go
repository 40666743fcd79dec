package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"EhonBot/internal/domain"
	"EhonBot/internal/selection"
)

const (
	configPathEnv      = "EHON_BOT_CONFIG"
	rakutenAppIDEnv    = "RAKUTEN_APP_ID"
	rakutenAffiliateID = "RAKUTEN_AFFILIATE_ID"
	rakutenGenreEnv    = "RAKUTEN_GENRE_PICTURE"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv     = "OPENAI_MODEL"
	twClientIDEnv      = "TW_CLIENT_ID"
	twClientSecretEnv  = "TW_CLIENT_SECRET"
	twRefreshTokenEnv  = "TW_REFRESH_TOKEN"
	databaseDSNEnv     = "DATABASE_DSN"
	historyPathEnv     = "HISTORY_PATH"
	githubOutputEnv    = "GITHUB_OUTPUT"

	defaultUserAgent = "ehon-no-mori-bot/2.1 (+https://github.com/)"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Selection SelectionConfig `yaml:"selection"`
	History   HistoryConfig   `yaml:"history"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DiscoveryConfig describes the book-discovery site and how hard to try it.
type DiscoveryConfig struct {
	BaseURL      string   `yaml:"baseUrl"`
	SiteName     string   `yaml:"siteName"`
	SuffixMarker string   `yaml:"suffixMarker"`
	IDMin        int      `yaml:"idMin"`
	IDMax        int      `yaml:"idMax"`
	Attempts     int      `yaml:"attempts"`
	DenyPhrases  []string `yaml:"denyPhrases"`
	UserAgent    string   `yaml:"userAgent"`
}

// CatalogConfig wires the Books search API.
type CatalogConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AppID           string `yaml:"appId"`
	AffiliateID     string `yaml:"affiliateId"`
	PictureGenreID  string `yaml:"pictureGenreId"`
	ChildrenGenreID string `yaml:"childrenGenreId"`
	Hits            int    `yaml:"hits"`
	MaxPage         int    `yaml:"maxPage"`
	UserAgent       string `yaml:"userAgent"`
}

// SelectionConfig tunes the selection pipeline.
type SelectionConfig struct {
	DenyKeywords   []string `yaml:"denyKeywords"`
	Authors        []string `yaml:"authors"`
	TierOrder      string   `yaml:"tierOrder"` // "title-first" or "author-first"
	BrowseAttempts int      `yaml:"browseAttempts"`
	FallbackDedup  bool     `yaml:"fallbackDedup"`
}

// HistoryConfig describes where and how long selections are remembered.
type HistoryConfig struct {
	Path             string `yaml:"path"`
	DSN              string `yaml:"dsn"`
	RetentionDays    int    `yaml:"retentionDays"`
	MinRetentionDays int    `yaml:"minRetentionDays"`
}

// MetadataConfig points at the supplementary isbn lookup service.
// An empty endpoint disables enrichment.
type MetadataConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// OpenAIConfig defines how to contact the text-generation API.
type OpenAIConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
	MaxBody      int    `yaml:"maxBody"`
}

// TwitterConfig wires the publishing platform and its OAuth2 refresh flow.
type TwitterConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RefreshToken string `yaml:"refreshToken"`
	TokenURL     string `yaml:"tokenUrl"`
	PostURL      string `yaml:"postUrl"`
	OutputPath   string `yaml:"outputPath"`
	UserAgent    string `yaml:"userAgent"`
}

// SchedulerConfig enables recurring runs; default is one run per process.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

// Validate checks that every mandatory credential is present. Missing
// values are fatal before any network call.
func (c Config) Validate() error {
	required := []struct {
		value string
		name  string
	}{
		{c.Catalog.AppID, rakutenAppIDEnv},
		{c.Catalog.AffiliateID, rakutenAffiliateID},
		{c.OpenAI.APIKey, openAIAPIKeyEnv},
		{c.Twitter.ClientID, twClientIDEnv},
		{c.Twitter.ClientSecret, twClientSecretEnv},
		{c.Twitter.RefreshToken, twRefreshTokenEnv},
	}
	for _, r := range required {
		if r.value == "" {
			return &domain.MissingConfigError{Name: r.name}
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(rakutenAppIDEnv); v != "" {
		c.Catalog.AppID = v
	}
	if v := os.Getenv(rakutenAffiliateID); v != "" {
		c.Catalog.AffiliateID = v
	}
	if v := os.Getenv(rakutenGenreEnv); v != "" {
		c.Catalog.PictureGenreID = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(twClientIDEnv); v != "" {
		c.Twitter.ClientID = v
	}
	if v := os.Getenv(twClientSecretEnv); v != "" {
		c.Twitter.ClientSecret = v
	}
	if v := os.Getenv(twRefreshTokenEnv); v != "" {
		c.Twitter.RefreshToken = v
	}
	if v := os.Getenv(githubOutputEnv); v != "" {
		c.Twitter.OutputPath = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.History.DSN = v
	}
	if v := os.Getenv(historyPathEnv); v != "" {
		c.History.Path = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Discovery.BaseURL != "" {
		base.Discovery.BaseURL = override.Discovery.BaseURL
	}
	if override.Discovery.SiteName != "" {
		base.Discovery.SiteName = override.Discovery.SiteName
	}
	if override.Discovery.SuffixMarker != "" {
		base.Discovery.SuffixMarker = override.Discovery.SuffixMarker
	}
	if override.Discovery.IDMin > 0 {
		base.Discovery.IDMin = override.Discovery.IDMin
	}
	if override.Discovery.IDMax > 0 {
		base.Discovery.IDMax = override.Discovery.IDMax
	}
	if override.Discovery.Attempts > 0 {
		base.Discovery.Attempts = override.Discovery.Attempts
	}
	if len(override.Discovery.DenyPhrases) > 0 {
		base.Discovery.DenyPhrases = override.Discovery.DenyPhrases
	}
	if override.Discovery.UserAgent != "" {
		base.Discovery.UserAgent = override.Discovery.UserAgent
	}

	if override.Catalog.Endpoint != "" {
		base.Catalog.Endpoint = override.Catalog.Endpoint
	}
	if override.Catalog.AppID != "" {
		base.Catalog.AppID = override.Catalog.AppID
	}
	if override.Catalog.AffiliateID != "" {
		base.Catalog.AffiliateID = override.Catalog.AffiliateID
	}
	if override.Catalog.PictureGenreID != "" {
		base.Catalog.PictureGenreID = override.Catalog.PictureGenreID
	}
	if override.Catalog.ChildrenGenreID != "" {
		base.Catalog.ChildrenGenreID = override.Catalog.ChildrenGenreID
	}
	if override.Catalog.Hits > 0 {
		base.Catalog.Hits = override.Catalog.Hits
	}
	if override.Catalog.MaxPage > 0 {
		base.Catalog.MaxPage = override.Catalog.MaxPage
	}
	if override.Catalog.UserAgent != "" {
		base.Catalog.UserAgent = override.Catalog.UserAgent
	}

	if len(override.Selection.DenyKeywords) > 0 {
		base.Selection.DenyKeywords = override.Selection.DenyKeywords
	}
	if len(override.Selection.Authors) > 0 {
		base.Selection.Authors = override.Selection.Authors
	}
	if override.Selection.TierOrder != "" {
		base.Selection.TierOrder = override.Selection.TierOrder
	}
	if override.Selection.BrowseAttempts > 0 {
		base.Selection.BrowseAttempts = override.Selection.BrowseAttempts
	}
	if override.Selection.FallbackDedup {
		base.Selection.FallbackDedup = true
	}

	if override.History.Path != "" {
		base.History.Path = override.History.Path
	}
	if override.History.DSN != "" {
		base.History.DSN = override.History.DSN
	}
	if override.History.RetentionDays > 0 {
		base.History.RetentionDays = override.History.RetentionDays
	}
	if override.History.MinRetentionDays > 0 {
		base.History.MinRetentionDays = override.History.MinRetentionDays
	}

	if override.Metadata.Endpoint != "" {
		base.Metadata.Endpoint = override.Metadata.Endpoint
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.SystemPrompt != "" {
		base.OpenAI.SystemPrompt = override.OpenAI.SystemPrompt
	}
	if override.OpenAI.MaxBody > 0 {
		base.OpenAI.MaxBody = override.OpenAI.MaxBody
	}

	if override.Twitter.ClientID != "" {
		base.Twitter.ClientID = override.Twitter.ClientID
	}
	if override.Twitter.ClientSecret != "" {
		base.Twitter.ClientSecret = override.Twitter.ClientSecret
	}
	if override.Twitter.RefreshToken != "" {
		base.Twitter.RefreshToken = override.Twitter.RefreshToken
	}
	if override.Twitter.TokenURL != "" {
		base.Twitter.TokenURL = override.Twitter.TokenURL
	}
	if override.Twitter.PostURL != "" {
		base.Twitter.PostURL = override.Twitter.PostURL
	}
	if override.Twitter.OutputPath != "" {
		base.Twitter.OutputPath = override.Twitter.OutputPath
	}
	if override.Twitter.UserAgent != "" {
		base.Twitter.UserAgent = override.Twitter.UserAgent
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Discovery: DiscoveryConfig{
			BaseURL:      "https://www.ehonnavi.net",
			SiteName:     "絵本ナビ",
			SuffixMarker: "｜絵本ナビ",
			IDMin:        1,
			IDMax:        120000,
			Attempts:     5,
			DenyPhrases:  []string{"一般書", "学習参考書", "問題集", "資格・検定", "小説"},
			UserAgent:    defaultUserAgent,
		},
		Catalog: CatalogConfig{
			Endpoint:        "https://app.rakuten.co.jp/services/api/BooksBook/Search/20170404",
			PictureGenreID:  "001004001",
			ChildrenGenreID: "001004008",
			Hits:            30,
			MaxPage:         60,
			UserAgent:       defaultUserAgent,
		},
		Selection: SelectionConfig{
			DenyKeywords:   selection.DefaultDenyKeywords,
			TierOrder:      "title-first",
			BrowseAttempts: 10,
		},
		History: HistoryConfig{
			Path:             "history.json",
			RetentionDays:    60,
			MinRetentionDays: 14,
		},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			SystemPrompt: "あなたは書店員。日本語でX向けの“短文”紹介文を作る。" +
				"制約: 本文は必ず140字以内、文は最大2文。" +
				"絵文字は0〜1個、ハッシュタグは最大2つ。" +
				"セールス臭は抑え、誠実で温かく。" +
				"誰向け/どのシーンかを1フレーズ入れる。" +
				"URLは投稿側で別行に付けるため、本文には含めない。" +
				"出力は本文のみ。",
			MaxBody: 140,
		},
		Twitter: TwitterConfig{
			TokenURL:  "https://api.twitter.com/2/oauth2/token",
			PostURL:   "https://api.twitter.com/2/tweets",
			UserAgent: defaultUserAgent,
		},
		Scheduler: SchedulerConfig{Enabled: false, Interval: 24 * time.Hour},
	}
}
