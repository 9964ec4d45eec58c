package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `yaml:"mode"`
	HTTPAddr string `yaml:"http_addr"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	AuthSecret     string `yaml:"auth_hmac_secret"`
	AuthorUser     string `yaml:"author_user"`
	AuthorPassHash string `yaml:"author_pass_hash"` // bcrypt

	CORSOrigins []string `yaml:"cors_origins"`

	// AssetsDir holds uploaded prompt assets; empty disables uploads.
	AssetsDir string `yaml:"assets_dir"`

	LogLevel string `yaml:"log_level"`
	LogDev   bool   `yaml:"log_dev"`

	// Defaults for widgets that do not say otherwise.
	DefaultForms []numeric.Form `yaml:"default_forms"`
	AllowEmpty   bool           `yaml:"allow_empty"`
}

// Defaults is the configuration used when neither a file nor the environment
// sets a key.
func Defaults() Config {
	return Config{
		Mode:           ModeOffline,
		HTTPAddr:       ":8080",
		DBDriver:       "sqlite",
		AuthSecret:     "supersecret-dev-key",
		AuthorUser:     "author",
		AuthorPassHash: "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji",
		CORSOrigins:    []string{"http://localhost:3000"},
		AssetsDir:      "./data/assets",
		LogLevel:       "info",
	}
}

// FromEnv builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func FromEnv() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the keys present in a YAML file onto c.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	for _, f := range c.DefaultForms {
		if !f.Valid() {
			return fmt.Errorf("parse config %s: unknown form %q", path, f)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.AuthSecret = envOr("AUTH_HMAC_SECRET", c.AuthSecret)
	c.AuthorUser = envOr("AUTHOR_USER", c.AuthorUser)
	c.AuthorPassHash = envOr("AUTHOR_PASS_HASH", c.AuthorPassHash)
	c.CORSOrigins = csvOr("CORS_ORIGINS", strings.Join(c.CORSOrigins, ","))
	c.AssetsDir = envOr("ASSETS_DIR", c.AssetsDir)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LogDev = envBool("LOG_DEV", c.LogDev)
	c.AllowEmpty = envBool("ALLOW_EMPTY", c.AllowEmpty)

	if v := os.Getenv("DEFAULT_FORMS"); v != "" {
		forms := []numeric.Form{}
		for _, s := range csvOr("DEFAULT_FORMS", "") {
			f, err := numeric.ParseForm(s)
			if err != nil {
				return fmt.Errorf("DEFAULT_FORMS: %w", err)
			}
			forms = append(forms, f)
		}
		c.DefaultForms = forms
	}

	switch c.Mode {
	case ModeOffline:
	case ModeOnline:
		if c.AuthSecret == Defaults().AuthSecret {
			return fmt.Errorf("AUTH_HMAC_SECRET must be set in online mode")
		}
	default:
		return fmt.Errorf("MODE: unknown mode %q", c.Mode)
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
