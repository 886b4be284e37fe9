package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server struct {
		Port              string `toml:"port"`
		RequestTimeoutSec int    `toml:"request_timeout_sec"`
	} `toml:"server"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`

	Line struct {
		ChannelSecret      string `toml:"channel_secret"`
		ChannelAccessToken string `toml:"channel_access_token"`
		APIBase            string `toml:"api_base"`
	} `toml:"line"`

	Providers struct {
		Order []string `toml:"order"`

		Yahoo struct {
			Enabled  bool   `toml:"enabled"`
			Endpoint string `toml:"endpoint"`
		} `toml:"yahoo"`

		FinMind struct {
			Enabled  bool   `toml:"enabled"`
			Endpoint string `toml:"endpoint"`
			Token    string `toml:"token"`
		} `toml:"finmind"`

		Sina struct {
			Enabled  bool   `toml:"enabled"`
			Endpoint string `toml:"endpoint"`
		} `toml:"sina"`
	} `toml:"providers"`

	Symbols struct {
		Fixed []string `toml:"fixed"`
	} `toml:"symbols"`

	Market struct {
		Timezone  string `toml:"timezone"`
		OpenHour  int    `toml:"open_hour"`
		CloseHour int    `toml:"close_hour"`
	} `toml:"market"`

	Broadcast struct {
		Mode        string   `toml:"mode"`     // "fixed" or "subscribers"
		Schedule    string   `toml:"schedule"` // "interval" or "hourly"
		IntervalMin int      `toml:"interval_min"`
		Recipients  []string `toml:"recipients"`
	} `toml:"broadcast"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "10000"
	}
	if cfg.Server.RequestTimeoutSec <= 0 {
		cfg.Server.RequestTimeoutSec = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Line.APIBase == "" {
		cfg.Line.APIBase = "https://api.line.me"
	}
	if len(cfg.Providers.Order) == 0 {
		cfg.Providers.Order = []string{"yahoo", "finmind", "sina"}
	}
	if cfg.Providers.Yahoo.Endpoint == "" {
		cfg.Providers.Yahoo.Endpoint = "https://query1.finance.yahoo.com"
	}
	if cfg.Providers.FinMind.Endpoint == "" {
		cfg.Providers.FinMind.Endpoint = "https://api.finmindtrade.com"
	}
	if cfg.Providers.Sina.Endpoint == "" {
		cfg.Providers.Sina.Endpoint = "https://hq.sinajs.cn"
	}
	if cfg.Market.Timezone == "" {
		cfg.Market.Timezone = "Asia/Taipei"
	}
	if cfg.Market.OpenHour == 0 && cfg.Market.CloseHour == 0 {
		cfg.Market.OpenHour = 9
		cfg.Market.CloseHour = 13
	}
	if cfg.Broadcast.Mode == "" {
		cfg.Broadcast.Mode = "fixed"
	}
	if cfg.Broadcast.Schedule == "" {
		cfg.Broadcast.Schedule = "interval"
	}
	if cfg.Broadcast.IntervalMin <= 0 {
		cfg.Broadcast.IntervalMin = 60
	}
}

// Secrets can come from the environment instead of the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LINE_CHANNEL_SECRET"); v != "" {
		cfg.Line.ChannelSecret = v
	}
	if v := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"); v != "" {
		cfg.Line.ChannelAccessToken = v
	}
	if v := os.Getenv("FINMIND_TOKEN"); v != "" {
		cfg.Providers.FinMind.Token = v
	}
}

func validate(cfg *Config) error {
	if cfg.Line.ChannelSecret == "" {
		return errors.New("line.channel_secret is required")
	}
	if cfg.Line.ChannelAccessToken == "" {
		return errors.New("line.channel_access_token is required")
	}

	switch cfg.Broadcast.Mode {
	case "fixed", "subscribers":
	default:
		return fmt.Errorf("broadcast.mode %q is not one of fixed, subscribers", cfg.Broadcast.Mode)
	}
	switch cfg.Broadcast.Schedule {
	case "interval", "hourly":
	default:
		return fmt.Errorf("broadcast.schedule %q is not one of interval, hourly", cfg.Broadcast.Schedule)
	}
	if cfg.Broadcast.Mode == "fixed" && len(cfg.Broadcast.Recipients) == 0 {
		return errors.New("broadcast.mode=fixed needs at least one recipient")
	}

	if cfg.Market.OpenHour < 0 || cfg.Market.OpenHour > 23 ||
		cfg.Market.CloseHour < 0 || cfg.Market.CloseHour > 23 ||
		cfg.Market.OpenHour > cfg.Market.CloseHour {
		return fmt.Errorf("market hours %d-%d are invalid", cfg.Market.OpenHour, cfg.Market.CloseHour)
	}
	if _, err := time.LoadLocation(cfg.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}

	cfg.Symbols.Fixed = normalizeCodes(cfg.Symbols.Fixed)
	return nil
}

func normalizeCodes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		c := strings.TrimSpace(s)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
