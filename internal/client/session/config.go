package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config locates the API and the frontend the client navigates to.
type Config struct {
	APIURL      string `env:"API_URL,      default=http://localhost:3000"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:8080"`
	TokenDir    string `env:"TOKEN_DIR,    default=.stylelab"`
}

// LoadConfig reads the client configuration from the environment.
func LoadConfig(ctx context.Context) (Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, fmt.Errorf("session: failed to load configuration: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return cfg, nil
}
