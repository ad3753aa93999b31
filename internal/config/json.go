package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	Bot struct {
		Token       string   `json:"token"`
		PollTimeout Duration `json:"poll_timeout"`
	} `json:"bot,omitempty"`

	Crypto struct {
		Password string `json:"password"`
		Salt     string `json:"salt"`
	} `json:"crypto,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Adapter struct {
		RequestTimeout Duration `json:"request_timeout"`

		CloudSaver struct {
			Host     string `json:"host"`
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"cloud_saver,omitempty"`

		PanSou struct {
			Host string `json:"host"`
		} `json:"pansou,omitempty"`

		TMDB struct {
			APIKey        string `json:"api_key"`
			PosterBaseURL string `json:"poster_base_url"`
		} `json:"tmdb,omitempty"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SweepInterval Duration `json:"sweep_interval"`
		TickInterval  Duration `json:"tick_interval"`
	} `json:"workers,omitempty"`

	App struct {
		TimeZone string `json:"time_zone"`
		Version  string `json:"version"`
	} `json:"app,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Bot: Bot{
			Token:       jsonCfg.Bot.Token,
			PollTimeout: time.Duration(jsonCfg.Bot.PollTimeout),
		},
		Crypto: Crypto{
			Password: jsonCfg.Crypto.Password,
			Salt:     jsonCfg.Crypto.Salt,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Adapter: Adapter{
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
			CloudSaver: CloudSaver{
				Host:     jsonCfg.Adapter.CloudSaver.Host,
				Username: jsonCfg.Adapter.CloudSaver.Username,
				Password: jsonCfg.Adapter.CloudSaver.Password,
			},
			PanSou: PanSou{
				Host: jsonCfg.Adapter.PanSou.Host,
			},
			TMDB: TMDB{
				APIKey:        jsonCfg.Adapter.TMDB.APIKey,
				PosterBaseURL: jsonCfg.Adapter.TMDB.PosterBaseURL,
			},
		},
		Workers: Workers{
			SweepInterval: time.Duration(jsonCfg.Workers.SweepInterval),
			TickInterval:  time.Duration(jsonCfg.Workers.TickInterval),
		},
		App: App{
			TimeZone: jsonCfg.App.TimeZone,
			Version:  jsonCfg.App.Version,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
