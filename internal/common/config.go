package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the docsprobe configuration
type Config struct {
	Site          SiteConfig          `toml:"site"`
	Browser       BrowserConfig       `toml:"browser"`
	Accessibility AccessibilityConfig `toml:"accessibility"`
	Language      LanguageConfig      `toml:"language"`
	Similarity    SimilarityConfig    `toml:"similarity"`
	Search        SearchConfig        `toml:"search"`
	Theme         ThemeConfig         `toml:"theme"`
	Layout        LayoutConfig        `toml:"layout"`
	Storage       StorageConfig       `toml:"storage"`
	Report        ReportConfig        `toml:"report"`
	Logging       LoggingConfig       `toml:"logging"`
	Scheduler     SchedulerConfig     `toml:"scheduler"`
}

// Duration wraps time.Duration so TOML files can use "10s" style values
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Dur is shorthand for building a Duration from a time.Duration
func Dur(d time.Duration) Duration {
	return Duration{Duration: d}
}

type SiteConfig struct {
	URL  string `toml:"url" validate:"required,url"` // Home page under test
	Name string `toml:"name" validate:"required"`    // Host name used to recognise site links
}

type BrowserConfig struct {
	Headless        bool     `toml:"headless"`
	DisableGPU      bool     `toml:"disable_gpu"`
	NoSandbox       bool     `toml:"no_sandbox"` // Needed when running as root in containers
	ExecPath        string   `toml:"exec_path"` // Optional Chrome binary, empty = auto-detect
	WindowWidth     int      `toml:"window_width" validate:"gt=0"`
	WindowHeight    int      `toml:"window_height" validate:"gt=0"`
	WaitTimeout     Duration `toml:"wait_timeout"`     // Bound for every DOM condition poll
	PollInterval    Duration `toml:"poll_interval"`    // Interval between condition checks
	ScenarioTimeout Duration `toml:"scenario_timeout"` // Hard cap for a whole scenario
}

type AccessibilityConfig struct {
	MaxTabs         int      `toml:"max_tabs" validate:"gt=0"`
	TargetHref      string   `toml:"target_href" validate:"required"` // Substring identifying the video link
	OutlineProperty string   `toml:"outline_property" validate:"required"` // Logged with each step; visibility uses outline-style and outline-width
	StepDelay       Duration `toml:"step_delay"` // Settle time after each key press
}

type LanguageConfig struct {
	TranslationsButton  string   `toml:"translations_button" validate:"required"`
	ListSelector        string   `toml:"list_selector" validate:"required"`
	ListIndex           int      `toml:"list_index" validate:"gte=0"` // Index of the "full translations" list
	ExcludeHost         string   `toml:"exclude_host"`
	LocaleCodes         []string `toml:"locale_codes" validate:"min=1,dive,required"`
	NotFoundTitle       string   `toml:"not_found_title"`
	NotFoundText        string   `toml:"not_found_text"`
	TargetURL           string   `toml:"target_url" validate:"required,url"` // Translated page compared for similarity
	SectionSelector     string   `toml:"section_selector" validate:"required"`
	FallbackSelector    string   `toml:"fallback_selector" validate:"required"`
	MaxChars            int      `toml:"max_chars" validate:"gt=0"`
	SimilarityThreshold float64  `toml:"similarity_threshold" validate:"gte=-1,lte=1"`
	PageLoadDelay       Duration `toml:"page_load_delay"`
}

type SimilarityConfig struct {
	Enabled    bool     `toml:"enabled"`
	APIKey     string   `toml:"api_key"`
	Model      string   `toml:"model" validate:"required"`
	Dimension  int      `toml:"dimension" validate:"gt=0"`
	TaskType   string   `toml:"task_type"`
	Timeout    Duration `toml:"timeout"`
	RateLimit  int      `toml:"rate_limit" validate:"gt=0"` // Requests per second
	MaxRetries int      `toml:"max_retries" validate:"gte=0"`
	CacheTTL   Duration `toml:"cache_ttl"`
}

type SearchConfig struct {
	ButtonSelector        string `toml:"button_selector" validate:"required"`
	InputSelector         string `toml:"input_selector" validate:"required"`
	ResultTitleSelector   string `toml:"result_title_selector" validate:"required"`
	ResultItemSelector    string `toml:"result_item_selector" validate:"required"`
	RecentSelector        string `toml:"recent_selector" validate:"required"`
	FavoriteSelector      string `toml:"favorite_selector" validate:"required"`
	SaveButtonSelector    string `toml:"save_button_selector" validate:"required"`
	RemoveButtonSelector  string `toml:"remove_button_selector" validate:"required"`
	NoResultTitleSelector string `toml:"no_result_title_selector" validate:"required"`
	NoResultText          string `toml:"no_result_text" validate:"required"`
	Query                 string `toml:"query" validate:"required"`
	InvalidQuery          string `toml:"invalid_query" validate:"required"`
	ViewportWidth         int    `toml:"viewport_width" validate:"gt=0"`
	ViewportHeight        int    `toml:"viewport_height" validate:"gt=0"`
}

type ThemeConfig struct {
	DarkButtonSelector  string `toml:"dark_button_selector" validate:"required"`
	LightButtonSelector string `toml:"light_button_selector" validate:"required"`
	TargetSelector      string `toml:"target_selector" validate:"required"`
	ColorProperty       string `toml:"color_property" validate:"required"`
}

// Breakpoint is a fixed viewport size used to validate responsive layout
type Breakpoint struct {
	Name   string `toml:"name" validate:"required"`
	Width  int    `toml:"width" validate:"gt=0"`
	Height int    `toml:"height" validate:"gt=0"`
}

type LayoutConfig struct {
	HeaderSelector      string       `toml:"header_selector" validate:"required"`
	FooterSelector      string       `toml:"footer_selector" validate:"required"`
	Breakpoints         []Breakpoint `toml:"breakpoints" validate:"min=1,dive"`
	OverflowTolerancePx int          `toml:"overflow_tolerance_px" validate:"gt=0"`
	SettleDelay         Duration     `toml:"settle_delay"`
	ScreenshotPrefix    string       `toml:"screenshot_prefix"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean runs
	InMemory       bool   `toml:"in_memory"`        // Keep nothing on disk (tests)
}

type ReportConfig struct {
	OutputDir    string `toml:"output_dir" validate:"required"` // Per-run report directories are created here
	ArtifactsDir string `toml:"artifacts_dir"`                  // Screenshots and snapshots, "." = working directory
	Markdown     bool   `toml:"markdown"`
	HTML         bool   `toml:"html"`
	PDF          bool   `toml:"pdf"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output"` // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
	FilePath   string   `toml:"file_path"`
}

type SchedulerConfig struct {
	Schedule string `toml:"schedule"` // Cron expression, empty = run once
}

// NewDefaultConfig creates a configuration with the react.dev defaults
func NewDefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			URL:  "https://react.dev/",
			Name: "react.dev",
		},
		Browser: BrowserConfig{
			Headless:        true,
			DisableGPU:      true,
			WindowWidth:     1920,
			WindowHeight:    1080,
			WaitTimeout:     Dur(10 * time.Second),
			PollInterval:    Dur(100 * time.Millisecond),
			ScenarioTimeout: Dur(5 * time.Minute),
		},
		Accessibility: AccessibilityConfig{
			MaxTabs:         60,
			TargetHref:      "youtube.com",
			OutlineProperty: "outline",
			StepDelay:       Dur(100 * time.Millisecond),
		},
		Language: LanguageConfig{
			TranslationsButton:  `[aria-label="Translations"]`,
			ListSelector:        "ul.ms-6.my-3.list-disc",
			ListIndex:           1,
			ExcludeHost:         "github.com",
			LocaleCodes:         []string{"en", "fr", "ja", "ko", "zh", "es", "tr"},
			NotFoundTitle:       "404",
			NotFoundText:        "Not Found",
			TargetURL:           "https://fr.react.dev/",
			SectionSelector:     "main",
			FallbackSelector:    "body",
			MaxChars:            1500,
			SimilarityThreshold: 0.4,
			PageLoadDelay:       Dur(2 * time.Second),
		},
		Similarity: SimilarityConfig{
			Enabled:    true,
			Model:      "gemini-embedding-001",
			Dimension:  768,
			TaskType:   "SEMANTIC_SIMILARITY",
			Timeout:    Dur(30 * time.Second),
			RateLimit:  2,
			MaxRetries: 3,
			CacheTTL:   Dur(7 * 24 * time.Hour),
		},
		Search: SearchConfig{
			ButtonSelector:        "button[aria-label*='Search']",
			InputSelector:         "input[type='search']",
			ResultTitleSelector:   ".DocSearch-Hit-title",
			ResultItemSelector:    ".DocSearch-Hit",
			RecentSelector:        `li[id^="docsearch-recentSearches-item-"]`,
			FavoriteSelector:      `li[id^="docsearch-favoriteSearches"]`,
			SaveButtonSelector:    `button[title="Save this search"]`,
			RemoveButtonSelector:  `button[title*="Remove this search"]`,
			NoResultTitleSelector: ".DocSearch-Title",
			NoResultText:          "No results for",
			Query:                 "custom hook",
			InvalidQuery:          "mvermlekrbm",
			ViewportWidth:         400,
			ViewportHeight:        800,
		},
		Theme: ThemeConfig{
			DarkButtonSelector:  "button[aria-label*='Dark']",
			LightButtonSelector: "button[aria-label*='Light']",
			TargetSelector:      "body",
			ColorProperty:       "background-color",
		},
		Layout: LayoutConfig{
			HeaderSelector: "nav.z-40",
			FooterSelector: "footer",
			Breakpoints: []Breakpoint{
				{Name: "mobile", Width: 375, Height: 667},
				{Name: "laptop", Width: 1200, Height: 800},
				{Name: "desktop", Width: 1920, Height: 1080},
			},
			OverflowTolerancePx: 50,
			SettleDelay:         Dur(1 * time.Second),
			ScreenshotPrefix:    "screenshot_",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/docsprobe",
			},
		},
		Report: ReportConfig{
			OutputDir:    "./results",
			ArtifactsDir: ".",
			Markdown:     true,
			HTML:         true,
			PDF:          false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: defaults -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies DOCSPROBE_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if siteURL := os.Getenv("DOCSPROBE_SITE_URL"); siteURL != "" {
		config.Site.URL = siteURL
	}
	if siteName := os.Getenv("DOCSPROBE_SITE_NAME"); siteName != "" {
		config.Site.Name = siteName
	}

	if headless := os.Getenv("DOCSPROBE_HEADLESS"); headless != "" {
		if v, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = v
		}
	}
	if noSandbox := os.Getenv("DOCSPROBE_NO_SANDBOX"); noSandbox != "" {
		if v, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = v
		}
	}
	if execPath := os.Getenv("DOCSPROBE_BROWSER_EXEC_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}
	if waitTimeout := os.Getenv("DOCSPROBE_WAIT_TIMEOUT"); waitTimeout != "" {
		if d, err := time.ParseDuration(waitTimeout); err == nil {
			config.Browser.WaitTimeout = Dur(d)
		}
	}

	// API key (highest priority: DOCSPROBE_GEMINI_API_KEY, fallback: GEMINI_API_KEY, GOOGLE_API_KEY)
	if apiKey := os.Getenv("DOCSPROBE_GEMINI_API_KEY"); apiKey != "" {
		config.Similarity.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && config.Similarity.APIKey == "" {
		config.Similarity.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" && config.Similarity.APIKey == "" {
		config.Similarity.APIKey = apiKey
	}
	if model := os.Getenv("DOCSPROBE_EMBED_MODEL"); model != "" {
		config.Similarity.Model = model
	}
	if enabled := os.Getenv("DOCSPROBE_SIMILARITY_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			config.Similarity.Enabled = v
		}
	}
	if threshold := os.Getenv("DOCSPROBE_SIMILARITY_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Language.SimilarityThreshold = v
		}
	}

	if level := os.Getenv("DOCSPROBE_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if output := os.Getenv("DOCSPROBE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if badgerPath := os.Getenv("DOCSPROBE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if resultsDir := os.Getenv("DOCSPROBE_RESULTS_DIR"); resultsDir != "" {
		config.Report.OutputDir = resultsDir
	}
	if artifactsDir := os.Getenv("DOCSPROBE_ARTIFACTS_DIR"); artifactsDir != "" {
		config.Report.ArtifactsDir = artifactsDir
	}
	if schedule := os.Getenv("DOCSPROBE_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority).
// Empty values leave the config untouched.
func ApplyFlagOverrides(config *Config, headless string, schedule string) error {
	if headless != "" {
		v, err := strconv.ParseBool(headless)
		if err != nil {
			return fmt.Errorf("invalid -headless value %q: %w", headless, err)
		}
		config.Browser.Headless = v
	}
	if schedule != "" {
		config.Scheduler.Schedule = schedule
	}
	return nil
}

// Validate checks struct constraints and the duration fields validator cannot see
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Browser.WaitTimeout.Duration <= 0 {
		return fmt.Errorf("invalid configuration: browser.wait_timeout must be positive")
	}
	if c.Browser.PollInterval.Duration <= 0 {
		return fmt.Errorf("invalid configuration: browser.poll_interval must be positive")
	}
	seen := make(map[string]bool, len(c.Layout.Breakpoints))
	for _, bp := range c.Layout.Breakpoints {
		if seen[bp.Name] {
			return fmt.Errorf("invalid configuration: duplicate breakpoint %q", bp.Name)
		}
		seen[bp.Name] = true
	}

	return nil
}
