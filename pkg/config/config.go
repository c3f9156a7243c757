package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the collector needs to run. There are no CLI
// flags: values come from defaults, an optional config.yaml and
// GHOSTTUBE_* environment variables.
type Config struct {
	Debug    bool
	Tor      TorConfig
	Rotation RotationConfig
	Search   SearchConfig
	Probe    ProbeConfig
	Paths    PathsConfig
	YTDLP    YTDLPConfig
	HTTP     HTTPConfig
}

// TorConfig describes the local anonymity daemon endpoints.
type TorConfig struct {
	SocksURL       string `mapstructure:"socks_url"`
	ControlAddress string `mapstructure:"control_address"`
	// SettleSeconds is how long to wait after a NEWNYM signal before the
	// new circuit is assumed usable.
	SettleSeconds int `mapstructure:"settle_seconds"`
	// TorrcPath overrides torrc discovery; empty means probe the usual
	// locations for the platform.
	TorrcPath string `mapstructure:"torrc_path"`
}

// RotationConfig controls identity-rotation cadence.
type RotationConfig struct {
	// Interval is the number of completed download attempts between
	// identity rotations.
	Interval int `mapstructure:"interval"`
}

// SearchConfig holds the search engine settings.
type SearchConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
}

// ProbeConfig names the "what is my address" service used to observe the
// current exit address.
type ProbeConfig struct {
	URL string `mapstructure:"url"`
}

// PathsConfig fixes the on-disk layout.
type PathsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	URLsFile  string `mapstructure:"urls_file"`
	HistoryDB string `mapstructure:"history_db"`
}

// YTDLPConfig points at the external download tool.
type YTDLPConfig struct {
	Binary string `mapstructure:"binary"`
}

// HTTPConfig tunes the proxied HTTP client.
type HTTPConfig struct {
	TimeoutSeconds    int `mapstructure:"timeout_seconds"`
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	BurstLimit        int `mapstructure:"burst_limit"`
}

// Load loads the configuration from defaults, file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("debug", false)
	v.SetDefault("tor.socks_url", "socks5://127.0.0.1:9050")
	v.SetDefault("tor.control_address", "127.0.0.1:9051")
	v.SetDefault("tor.settle_seconds", 5)
	v.SetDefault("tor.torrc_path", "")
	v.SetDefault("rotation.interval", 10)
	v.SetDefault("search.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("probe.url", "https://ident.me")
	v.SetDefault("paths.output_dir", "output")
	v.SetDefault("paths.urls_file", "urls.txt")
	v.SetDefault("paths.history_db", "history.db")
	v.SetDefault("ytdlp.binary", "yt-dlp")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.requests_per_second", 2)
	v.SetDefault("http.burst_limit", 4)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// No config file is fine; defaults and env cover everything.
	}

	v.SetEnvPrefix("GHOSTTUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
