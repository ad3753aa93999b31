package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the mediabot
// application. It aggregates all sub-configurations and is populated by
// merging values from environment variables, command-line flags, an optional
// JSON file, and built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Bot holds Telegram transport settings.
	Bot Bot `envPrefix:"BOT_"`

	// Crypto holds the secret material for the credential codec. Both
	// fields are required and must be at least 16 characters long.
	Crypto Crypto `envPrefix:"CRYPTO_"`

	// Storage holds configuration for the embedded database.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds settings shared by all outbound REST clients.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// App holds application-level settings such as the timezone used for
	// reminder scheduling and the application version.
	App App `envPrefix:"APP_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Bot holds Telegram transport settings.
type Bot struct {
	// Token is the Telegram Bot API token obtained from BotFather.
	// Env: BOT_TOKEN
	Token string `env:"TOKEN"`

	// PollTimeout is the long-polling timeout for GetUpdates requests.
	// Env: BOT_POLL_TIMEOUT
	PollTimeout time.Duration `env:"POLL_TIMEOUT"`
}

// Crypto holds the key-derivation inputs for the credential codec.
type Crypto struct {
	// Password is the master password from which the storage key is
	// derived. Must be kept confidential.
	// Env: CRYPTO_PASSWORD
	Password string `env:"PASSWORD"`

	// Salt is the key-derivation salt. Changing it invalidates every
	// secret already stored in the database.
	// Env: CRYPTO_SALT
	Salt string `env:"SALT"`
}

// Storage groups the configuration for all persistence backends.
type Storage struct {
	// DB holds the embedded database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the embedded SQLite database.
type DB struct {
	// DSN is the SQLite file path (e.g. "mediabot.db").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Adapter holds settings shared by all outbound REST clients
// (CloudSaver, PanSou, Quark, Emby, TMDB, quark-auto-save, AI providers).
type Adapter struct {
	// RequestTimeout is the default timeout for a single outbound request
	// (e.g. "15s"). Individual clients may override it.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// CloudSaver holds the CloudSaver search backend credentials.
	CloudSaver CloudSaver `envPrefix:"CLOUD_SAVER_"`

	// PanSou holds the PanSou search backend settings.
	PanSou PanSou `envPrefix:"PANSOU_"`

	// TMDB holds The Movie Database API settings.
	TMDB TMDB `envPrefix:"TMDB_"`
}

// CloudSaver holds the CloudSaver search backend settings. Search is
// disabled against this backend when Host is empty.
type CloudSaver struct {
	// Host is the CloudSaver base URL.
	// Env: ADAPTER_CLOUD_SAVER_HOST
	Host string `env:"HOST"`

	// Username is the CloudSaver account name used to obtain a token.
	// Env: ADAPTER_CLOUD_SAVER_USERNAME
	Username string `env:"USERNAME"`

	// Password is the CloudSaver account password.
	// Env: ADAPTER_CLOUD_SAVER_PASSWORD
	Password string `env:"PASSWORD"`
}

// PanSou holds the PanSou search backend settings.
type PanSou struct {
	// Host is the PanSou base URL.
	// Env: ADAPTER_PANSOU_HOST
	Host string `env:"HOST"`
}

// TMDB holds The Movie Database API settings.
type TMDB struct {
	// APIKey authenticates search requests.
	// Env: ADAPTER_TMDB_API_KEY
	APIKey string `env:"API_KEY"`

	// PosterBaseURL prefixes poster paths returned by the search API
	// (e.g. "https://image.tmdb.org/t/p/w500").
	// Env: ADAPTER_TMDB_POSTER_BASE_URL
	PosterBaseURL string `env:"POSTER_BASE_URL"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// SweepInterval defines how often the reminder reconciliation sweep
	// runs (e.g. "1m").
	// Env: WORKERS_SWEEP_INTERVAL
	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`

	// TickInterval defines how often the scheduler checks for due
	// reminder jobs (e.g. "15s").
	// Env: WORKERS_TICK_INTERVAL
	TickInterval time.Duration `env:"TICK_INTERVAL"`
}

// App holds application-level configuration values.
type App struct {
	// TimeZone is the IANA timezone name used when interpreting reminder
	// dates and cron expressions (e.g. "Asia/Shanghai").
	// Env: APP_TIME_ZONE
	TimeZone string `env:"TIME_ZONE"`

	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (earlier sources win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
