// Package boot provides runtime configuration resolved from config and environment.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/memohai/contactbook/internal/config"
)

// RuntimeConfig holds parsed runtime settings.
// Values may be overridden by environment variables (DATABASE_URL, HTTP_ADDR,
// TEMPLATES_DIR, TEMPLATES_RELOAD).
type RuntimeConfig struct {
	ServerAddr           string
	RequestTimeout       time.Duration
	RateLimit            float64
	RateBurst            int
	TransientUnavailable bool

	DatabaseURL    string
	MaxConns       int32
	MigrateOnStart bool

	TemplatesDir   string
	TemplateReload string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	ret := &RuntimeConfig{
		ServerAddr:           cfg.Server.Addr,
		RateLimit:            cfg.Server.RateLimit,
		RateBurst:            cfg.Server.RateBurst,
		TransientUnavailable: cfg.Server.TransientUnavailable,
		DatabaseURL:          cfg.Database.URL,
		MaxConns:             cfg.Database.MaxConns,
		MigrateOnStart:       cfg.Database.MigrateOnStart,
		TemplatesDir:         cfg.Templates.Dir,
		TemplateReload:       cfg.Templates.Reload,
	}

	if value := os.Getenv("DATABASE_URL"); value != "" {
		ret.DatabaseURL = value
	}
	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("TEMPLATES_DIR"); value != "" {
		ret.TemplatesDir = value
	}
	if value := os.Getenv("TEMPLATES_RELOAD"); value != "" {
		ret.TemplateReload = value
	}

	if strings.TrimSpace(ret.DatabaseURL) == "" {
		return nil, errors.New("database url is required")
	}

	if raw := strings.TrimSpace(cfg.Server.RequestTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid request timeout: %w", err)
		}
		if timeout < 0 {
			return nil, fmt.Errorf("invalid request timeout: %s", raw)
		}
		ret.RequestTimeout = timeout
	}

	if ret.RateLimit < 0 {
		return nil, fmt.Errorf("invalid rate limit: %v", ret.RateLimit)
	}

	ret.TemplateReload = strings.ToLower(strings.TrimSpace(ret.TemplateReload))
	switch ret.TemplateReload {
	case "":
		ret.TemplateReload = config.DefaultTemplateReload
	case config.ReloadWatch, config.ReloadOnce:
	default:
		return nil, fmt.Errorf("unknown template reload policy: %s (use: %s, %s)", ret.TemplateReload, config.ReloadWatch, config.ReloadOnce)
	}

	return ret, nil
}
