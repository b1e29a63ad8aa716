package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Data-access modes. A process runs exactly one of them.
const (
	ModeStore = "store"
	ModeProxy = "proxy"
)

var (
	ErrInvalidMode = errors.New("error getting CD_MODE: expected \"store\" or \"proxy\"")
	ErrEmptyAPIURL = errors.New("error getting CD_API_URL: proxy mode requires the changedetection.io URL")
)

type Config struct {
	Env         string // Env is the current environment: local, development, production.
	Mode        string
	StoragePath string
	StaticDir   string // StaticDir is the absolute path of the built frontend, resolved once at startup.
	HTTP        HTTP
	API         API
	Auth        Auth
	Tg          Telegram
}

type HTTP struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// API describes the changedetection.io instance used in proxy mode.
type API struct {
	URL     string
	Key     string
	Timeout time.Duration // Timeout bounds each upstream request.
}

type Auth struct {
	Username string
	Password string // Password enables authentication when non-empty.
	Secret   string // Secret signs session tokens.
	TokenTTL time.Duration
}

// Enabled reports whether the dashboard requires a login.
func (a Auth) Enabled() bool {
	return a.Password != ""
}

type Telegram struct {
	Token   string        // Token is an unique telgram bot token; empty disables the bot.
	Timeout time.Duration // Timeout is a poller timeout duration.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
// It panics when the configuration is unusable.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load reads .env (when present) and CD_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("CD")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault("ENV", "production")
	v.SetDefault("MODE", ModeStore)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("HTTP_READ_TIMEOUT", "10s")
	// No blanket write deadline: each upstream call of the proxy fan-out has its own timeout.
	v.SetDefault("HTTP_WRITE_TIMEOUT", "0s")
	v.SetDefault("STORAGE_PATH", "./data/changedetection.sqlite")
	v.SetDefault("STATIC_DIR", "./dist")
	v.SetDefault("API_URL", "http://localhost:5000")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("AUTH_USERNAME", "admin")
	v.SetDefault("AUTH_TOKEN_TTL", "24h")
	v.SetDefault("TELEGRAM_TIMEOUT", "15s")

	mode := v.GetString("MODE")
	if mode != ModeStore && mode != ModeProxy {
		return nil, ErrInvalidMode
	}

	if mode == ModeProxy && v.GetString("API_URL") == "" {
		return nil, ErrEmptyAPIURL
	}

	staticDir, err := filepath.Abs(v.GetString("STATIC_DIR"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve CD_STATIC_DIR: %w", err)
	}

	secret := v.GetString("AUTH_SECRET")
	if secret == "" {
		secret = v.GetString("AUTH_PASSWORD")
	}

	return &Config{
		Env:         v.GetString("ENV"),
		Mode:        mode,
		StoragePath: v.GetString("STORAGE_PATH"),
		StaticDir:   staticDir,
		HTTP: HTTP{
			Addr:         v.GetString("HTTP_ADDR"),
			ReadTimeout:  v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("HTTP_WRITE_TIMEOUT"),
		},
		API: API{
			URL:     v.GetString("API_URL"),
			Key:     v.GetString("API_KEY"),
			Timeout: v.GetDuration("API_TIMEOUT"),
		},
		Auth: Auth{
			Username: v.GetString("AUTH_USERNAME"),
			Password: v.GetString("AUTH_PASSWORD"),
			Secret:   secret,
			TokenTTL: v.GetDuration("AUTH_TOKEN_TTL"),
		},
		Tg: Telegram{
			Token:   v.GetString("TELEGRAM_TOKEN"),
			Timeout: v.GetDuration("TELEGRAM_TIMEOUT"),
		},
	}, nil
}
