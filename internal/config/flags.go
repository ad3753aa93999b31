package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-token Telegram bot token
//	-d database file path
//	-c/-config json file path with configs
//	-crypto-password master password for the credential codec
//	-crypto-salt key-derivation salt for the credential codec
//	-time-zone IANA timezone name (e.g. "Asia/Shanghai")
//	-poll-timeout long-polling timeout (e.g. "30s")
//	-request-timeout outbound request timeout (e.g. "15s")
//	-sweep-interval reminder reconciliation interval (e.g. "1m")
//	-tick-interval scheduler tick interval (e.g. "15s")
func ParseFlags() *StructuredConfig {
	var botToken string
	var databaseDSN string
	var jsonConfigPath string
	var cryptoPassword string
	var cryptoSalt string
	var timeZone string
	var pollTimeout time.Duration
	var requestTimeout time.Duration
	var sweepInterval time.Duration
	var tickInterval time.Duration

	flag.StringVar(&botToken, "token", "", "Telegram bot token")
	flag.StringVar(&databaseDSN, "d", "", "Database file path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&cryptoPassword, "crypto-password", "", "Credential codec master password")
	flag.StringVar(&cryptoSalt, "crypto-salt", "", "Credential codec salt")
	flag.StringVar(&timeZone, "time-zone", "", "IANA timezone name")
	flag.DurationVar(&pollTimeout, "poll-timeout", 0, "Long-polling timeout (e.g., 30s)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Outbound request timeout (e.g., 15s)")
	flag.DurationVar(&sweepInterval, "sweep-interval", 0, "Reminder reconciliation interval (e.g., 1m)")
	flag.DurationVar(&tickInterval, "tick-interval", 0, "Scheduler tick interval (e.g., 15s)")

	flag.Parse()

	return &StructuredConfig{
		Bot: Bot{
			Token:       botToken,
			PollTimeout: pollTimeout,
		},
		Crypto: Crypto{
			Password: cryptoPassword,
			Salt:     cryptoSalt,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Adapter: Adapter{
			RequestTimeout: requestTimeout,
		},
		Workers: Workers{
			SweepInterval: sweepInterval,
			TickInterval:  tickInterval,
		},
		App: App{
			TimeZone: timeZone,
		},
		JSONFilePath: jsonConfigPath,
	}
}
