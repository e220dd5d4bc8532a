package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Capture   CaptureConfig
	Pipeline  PipelineConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Webhook   WebhookConfig
}

// ServerConfig controls the HTTP report surface.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser session used for artifact capture.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL for browser and direct HTTP fetches.
	DefaultProxy string

	// Stealth applies the stealth JS patch to every page.
	Stealth bool // default: true

	// CDPURL attaches to an externally managed browser (the session
	// collaborator's live context) instead of launching one.
	CDPURL string
}

// CaptureConfig controls artifact capture behaviour.
type CaptureConfig struct {
	// FieldTimeout bounds the capture of a single artifact field.
	// Exceeding it marks that field unresolved, never the batch.
	FieldTimeout time.Duration // default: 20s

	// ArtifactDir is the root directory for persisted artifact files.
	ArtifactDir string // default: "artifacts"

	// DetailURL is the printf-style template resolving an entity ID to its
	// portal detail page (e.g. "https://portal.example.in/project/%s").
	DetailURL string

	// RequestsPerSecond is the politeness throttle between field captures.
	RequestsPerSecond float64 // default: 1

	// Burst is the politeness limiter burst size.
	Burst int // default: 1

	// SaveMarkdown additionally stores a markdown rendering of HTML
	// artifacts next to the raw capture.
	SaveMarkdown bool // default: true
}

// PipelineConfig controls batch processing.
type PipelineConfig struct {
	// Workers bounds the concurrent extract+map fan-out. Capture is always
	// serialized per browsing session regardless of this value.
	Workers int // default: 4

	// PageDir is the directory of persisted page documents (<entity>.html).
	PageDir string // default: "pages"

	// SynonymTable is the path of the synonym table YAML.
	SynonymTable string // default: "synonyms.yaml"

	// LayoutDriftThreshold is the Hamming distance above which a page's
	// DOM fingerprint counts as a layout outlier.
	LayoutDriftThreshold int // default: 12
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting on the API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the processed-record cache behind the API.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// WebhookConfig controls the optional run-completion notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("DOCKET_HOST", "0.0.0.0"),
			Port: envIntOr("DOCKET_PORT", 8080),
			Mode: envOr("DOCKET_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("DOCKET_HEADLESS", true),
			NoSandbox:    envBoolOr("DOCKET_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("DOCKET_BROWSER_BIN"),
			DefaultProxy: os.Getenv("DOCKET_PROXY"),
			Stealth:      envBoolOr("DOCKET_STEALTH", true),
			CDPURL:       os.Getenv("DOCKET_CDP_URL"),
		},
		Capture: CaptureConfig{
			FieldTimeout:      envDurationOr("DOCKET_FIELD_TIMEOUT", 20*time.Second),
			ArtifactDir:       envOr("DOCKET_ARTIFACT_DIR", "artifacts"),
			DetailURL:         os.Getenv("DOCKET_DETAIL_URL"),
			RequestsPerSecond: envFloatOr("DOCKET_CAPTURE_RPS", 1.0),
			Burst:             envIntOr("DOCKET_CAPTURE_BURST", 1),
			SaveMarkdown:      envBoolOr("DOCKET_SAVE_MARKDOWN", true),
		},
		Pipeline: PipelineConfig{
			Workers:              envIntOr("DOCKET_WORKERS", 4),
			PageDir:              envOr("DOCKET_PAGE_DIR", "pages"),
			SynonymTable:         envOr("DOCKET_SYNONYMS", "synonyms.yaml"),
			LayoutDriftThreshold: envIntOr("DOCKET_LAYOUT_DRIFT", 12),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("DOCKET_AUTH_ENABLED", false),
			APIKeys: envSliceOr("DOCKET_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("DOCKET_RATE_RPS", 5.0),
			Burst:             envIntOr("DOCKET_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("DOCKET_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("DOCKET_LOG_LEVEL", "info"),
			Format: envOr("DOCKET_LOG_FORMAT", "json"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("DOCKET_WEBHOOK_URL"),
			Secret: os.Getenv("DOCKET_WEBHOOK_SECRET"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
