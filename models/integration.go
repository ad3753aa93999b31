package models

import "time"

// EmbyConfig holds one user's Emby server connection. APIToken and Password
// are stored encrypted by the credential codec.
type EmbyConfig struct {
	ConfigID int64  `json:"-"`
	UserID   int64  `json:"-"`
	Host     string `json:"host"`
	APIToken string `json:"api_token"`
	Username string `json:"username"`
	Password string `json:"password"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the EmbyConfig model.
func (c EmbyConfig) TableName() string {
	return "emby_configs"
}

// EmbyConfigUpdate is a partial update of an EmbyConfig. Nil fields keep
// their stored values.
type EmbyConfigUpdate struct {
	Host     *string
	APIToken *string
	Username *string
	Password *string
}

// Default values applied when a quark-auto-save config is created without
// the optional fields.
const (
	DefaultQASSavePathPrefix = "/"
	DefaultQASPattern        = ".*.(mp4|mkv)"
	DefaultQASReplace        = "{SXX}E{E}.{EXT}"
)

// QASConfig holds one user's quark-auto-save endpoint. APIToken is stored
// encrypted by the credential codec.
type QASConfig struct {
	ConfigID int64  `json:"-"`
	UserID   int64  `json:"-"`
	Host     string `json:"host"`
	APIToken string `json:"api_token"`

	// SavePathPrefix prefixes series save paths inside the quark drive.
	SavePathPrefix string `json:"save_path_prefix"`

	// MovieSavePathPrefix prefixes movie save paths.
	MovieSavePathPrefix string `json:"movie_save_path_prefix"`

	// Pattern is the default filename regexp for new tasks.
	Pattern string `json:"pattern"`

	// Replace is the default rename template for new tasks.
	Replace string `json:"replace"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the QASConfig model.
func (c QASConfig) TableName() string {
	return "qas_configs"
}

// QASConfigUpdate is a partial update of a QASConfig. Nil fields keep their
// stored values.
type QASConfigUpdate struct {
	Host                *string
	APIToken            *string
	SavePathPrefix      *string
	MovieSavePathPrefix *string
	Pattern             *string
	Replace             *string
}

// Known AI provider names.
const (
	AIProviderOpenAI   = "openai"
	AIProviderDeepSeek = "deepseek"
	AIProviderKimi     = "kimi"
)

// AIProviders lists the providers offered in the configuration menu, in
// display order.
var AIProviders = []string{AIProviderOpenAI, AIProviderDeepSeek, AIProviderKimi}

// AIProviderConfig holds one user's credentials for a single AI provider.
// One row per (user, provider). APIKey is stored encrypted by the credential
// codec.
type AIProviderConfig struct {
	ConfigID     int64  `json:"-"`
	UserID       int64  `json:"-"`
	ProviderName string `json:"provider_name"`
	APIKey       string `json:"api_key"`
	Host         string `json:"host"`
	Model        string `json:"model"`

	// IsDefault marks the provider used by reminder parsing and
	// quark-auto-save naming. At most one default per user.
	IsDefault bool `json:"is_default"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the AIProviderConfig model.
func (c AIProviderConfig) TableName() string {
	return "ai_provider_configs"
}

// Complete reports whether the config can serve chat requests.
func (c AIProviderConfig) Complete() bool {
	return c.APIKey != "" && c.Host != "" && c.Model != ""
}

// AIProviderConfigUpdate is a partial update of an AIProviderConfig.
// Nil fields keep their stored values.
type AIProviderConfigUpdate struct {
	APIKey    *string
	Host      *string
	Model     *string
	IsDefault *bool
}
