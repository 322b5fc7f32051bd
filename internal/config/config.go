package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App      App      `yaml:"app"`
	Logger   Logger   `yaml:"logger"`
	GitHub   GitHub   `yaml:"github"`
	OIDC     OIDC     `yaml:"oidc"`
	Redis    Redis    `yaml:"redis"`
	Database Database `yaml:"db"`
	Signup   Signup   `yaml:"signup"`
	Projects Projects `yaml:"projects"`
}

type App struct {
	Port          string        `env:"APP_PORT"        env-default:"8080"                  yaml:"port"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080" yaml:"publicBaseURL"`
	SecureCookies bool          `env:"SECURE_COOKIES"  env-default:"true"                  yaml:"secureCookies"`
	ReadTimeout   time.Duration `env:"READ_TIMEOUT"    env-default:"15s"                   yaml:"readTimeout"`
	WriteTimeout  time.Duration `env:"WRITE_TIMEOUT"   env-default:"15s"                   yaml:"writeTimeout"`
}

type Logger struct {
	Level string `env:"LOG_LEVEL" env-default:"info" yaml:"level"`
}

type GitHub struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"     env-required:"true" yaml:"clientID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET" env-required:"true" yaml:"clientSecret"`
	RedirectURL  string `env:"GITHUB_REDIRECT_URL"                      yaml:"redirectURL"`
	// APIBaseURL is overridden in tests and for GitHub Enterprise.
	APIBaseURL string `env:"GITHUB_API_BASE_URL" env-default:"https://api.github.com" yaml:"apiBaseURL"`
}

// OIDC is optional; the provider is registered only when Issuer is set.
type OIDC struct {
	Name         string `env:"OIDC_PROVIDER_NAME" env-default:"oidc" yaml:"name"`
	Issuer       string `env:"OIDC_ISSUER"                           yaml:"issuer"`
	ClientID     string `env:"OIDC_CLIENT_ID"                        yaml:"clientID"`
	ClientSecret string `env:"OIDC_CLIENT_SECRET"                    yaml:"clientSecret"`
	RedirectURL  string `env:"OIDC_REDIRECT_URL"                     yaml:"redirectURL"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR"     env-default:"localhost:6379" yaml:"addr"`
	Password string `env:"REDIS_PASSWORD"                              yaml:"password"`
	DB       int    `env:"REDIS_DB"       env-default:"0"              yaml:"db"`
}

type Database struct {
	DSN string `env:"DATABASE_DSN" env-required:"true" yaml:"dsn"`
}

type Signup struct {
	// Provider verifies the identityToken posted to /user.
	Provider     string        `env:"SIGNUP_PROVIDER"      env-default:"github"                 yaml:"provider"`
	InterestTags []string      `env:"SIGNUP_INTEREST_TAGS" env-default:"go,rust,python,javascript,java,docs" env-separator:"," yaml:"interestTags"`
	SessionTTL   time.Duration `env:"SESSION_TTL"          env-default:"24h"                    yaml:"sessionTTL"`
}

type Projects struct {
	// SyncWithGitHub turns contributor counting off when false, e.g. to stay
	// under the anonymous API rate limit in development.
	SyncWithGitHub bool          `env:"PROJECTS_SYNC_WITH_GITHUB" env-default:"true" yaml:"syncWithGitHub"`
	MaxSyncAge     time.Duration `env:"PROJECTS_MAX_SYNC_AGE"     env-default:"1h"   yaml:"maxSyncAge"`
	// RefreshInterval of zero disables the background refresh.
	RefreshInterval time.Duration `env:"PROJECTS_REFRESH_INTERVAL" env-default:"0s" yaml:"refreshInterval"`
}

// Load reads the YAML file at path (when given) and overlays environment variables.
func Load(path string) (Config, error) {
	var cfg Config

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	if cfg.GitHub.RedirectURL == "" {
		cfg.GitHub.RedirectURL = cfg.App.PublicBaseURL + "/oauth/callback/github"
	}
	if cfg.OIDC.Issuer != "" && cfg.OIDC.RedirectURL == "" {
		cfg.OIDC.RedirectURL = cfg.App.PublicBaseURL + "/oauth/callback/" + cfg.OIDC.Name
	}

	return cfg, nil
}
