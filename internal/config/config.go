package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
	ProviderMock     = "mock"

	DeepSeekBaseURL = "https://api.deepseek.com"
	DeepSeekModel   = "deepseek-chat"
	OpenAIModel     = "gpt-3.5-turbo"
)

type Config struct {
	Port string `koanf:"port"`

	// Uploads
	UploadDir      string `koanf:"upload_dir"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
	CORSAllowAll   bool   `koanf:"cors_allow_all"`

	// AdminAPIKey guards stats and deletion endpoints; empty leaves them open.
	AdminAPIKey          string `koanf:"admin_api_key"`
	PDFFallbackPdftotext bool   `koanf:"pdf_fallback_pdftotext"`

	// Mind map generation. Provider is inferred from the keys when empty.
	LLMProvider           string        `koanf:"llm_provider"`
	LLMBaseURL            string        `koanf:"llm_base_url"`
	LLMModel              string        `koanf:"llm_model"`
	DeepSeekAPIKey        string        `koanf:"deepseek_api_key"`
	OpenAIAPIKey          string        `koanf:"openai_api_key"`
	LLMTimeout            time.Duration `koanf:"llm_timeout"`
	MaxConcurrentGenerate int           `koanf:"max_concurrent_generate"`
	ExcerptRunes          int           `koanf:"excerpt_runes"`

	// Document records
	StoreBackend string        `koanf:"store_backend"`
	RedisURL     string        `koanf:"redis_url"`
	DocumentTTL  time.Duration `koanf:"document_ttl"`

	// Viewer
	DefaultLanguage string        `koanf:"default_language"`
	HighlightDelay  time.Duration `koanf:"highlight_delay"`
	ActiveFeedback  time.Duration `koanf:"active_feedback"`
	ProximityWindow int           `koanf:"proximity_window"`
	MinKeywordRunes int           `koanf:"min_keyword_runes"`
}

// DefaultConfig returns the configuration used when no file or env override is present.
func DefaultConfig() Config {
	return Config{
		Port:           "8000",
		UploadDir:      "uploads",
		MaxUploadBytes: 52428800, // 50MB
		CORSAllowAll:   true,

		LLMTimeout:            120 * time.Second,
		MaxConcurrentGenerate: 4,
		ExcerptRunes:          3000,

		StoreBackend: StoreMemory,
		DocumentTTL:  24 * time.Hour,

		DefaultLanguage: "chinese",
		HighlightDelay:  time.Second,
		ActiveFeedback:  300 * time.Millisecond,
		ProximityWindow: 50,
	}
}

// Load reads the optional YAML file at path, then overlays DOCMIND_* environment
// variables. The bare DEEPSEEK_API_KEY, OPENAI_API_KEY and PORT variables are
// honored as fallbacks.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("DOCMIND_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DOCMIND_"))
	}), nil); err != nil {
		return cfg, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.DeepSeekAPIKey == "" {
		cfg.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("PORT"); v != "" && !k.Exists("port") {
		cfg.Port = v
	}

	cfg.normalize()
	return cfg, nil
}

// normalize resets non-positive values to their defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.UploadDir == "" {
		c.UploadDir = def.UploadDir
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = def.LLMTimeout
	}
	if c.MaxConcurrentGenerate <= 0 {
		c.MaxConcurrentGenerate = def.MaxConcurrentGenerate
	}
	if c.ExcerptRunes <= 0 {
		c.ExcerptRunes = def.ExcerptRunes
	}
	if c.StoreBackend == "" {
		c.StoreBackend = def.StoreBackend
	}
	if c.DocumentTTL <= 0 {
		c.DocumentTTL = def.DocumentTTL
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = def.DefaultLanguage
	}
	if c.HighlightDelay <= 0 {
		c.HighlightDelay = def.HighlightDelay
	}
	if c.ActiveFeedback <= 0 {
		c.ActiveFeedback = def.ActiveFeedback
	}
	if c.ProximityWindow <= 0 {
		c.ProximityWindow = def.ProximityWindow
	}
	if c.MinKeywordRunes < 0 {
		c.MinKeywordRunes = 0
	}
}

var validProviders = map[string]bool{
	"":               true,
	ProviderDeepSeek: true,
	ProviderOpenAI:   true,
	ProviderMock:     true,
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload_dir is required")
	}
	if !validProviders[c.LLMProvider] {
		return fmt.Errorf("invalid llm_provider %q: must be one of deepseek, openai, mock", c.LLMProvider)
	}
	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url is required when store_backend is redis")
		}
	default:
		return fmt.Errorf("invalid store_backend %q: must be memory or redis", c.StoreBackend)
	}
	if c.HighlightDelay < time.Second {
		return fmt.Errorf("highlight_delay must be at least 1s, got %s", c.HighlightDelay)
	}
	switch c.DefaultLanguage {
	case "chinese", "english":
	default:
		return fmt.Errorf("invalid default_language %q: must be chinese or english", c.DefaultLanguage)
	}
	return nil
}

// LLMSettings is the resolved provider selection.
type LLMSettings struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
}

// LLM resolves which provider to call. A DeepSeek key wins over an OpenAI key;
// with neither key the mock provider is used.
func (c Config) LLM() LLMSettings {
	s := LLMSettings{Provider: c.LLMProvider, BaseURL: c.LLMBaseURL, Model: c.LLMModel}
	if s.Provider == "" {
		switch {
		case c.DeepSeekAPIKey != "":
			s.Provider = ProviderDeepSeek
		case c.OpenAIAPIKey != "":
			s.Provider = ProviderOpenAI
		default:
			s.Provider = ProviderMock
		}
	}

	switch s.Provider {
	case ProviderDeepSeek:
		s.APIKey = c.DeepSeekAPIKey
		if s.BaseURL == "" {
			s.BaseURL = DeepSeekBaseURL
		}
		if s.Model == "" {
			s.Model = DeepSeekModel
		}
	case ProviderOpenAI:
		s.APIKey = c.OpenAIAPIKey
		if s.Model == "" {
			s.Model = OpenAIModel
		}
	}
	if s.Provider != ProviderMock && s.APIKey == "" {
		s.Provider = ProviderMock
	}
	return s
}
