package models

// UserSettings holds per-user preferences persisted as a JSON column on the
// users table.
type UserSettings struct {
	// PreferredCloudTypes filters search results to the named cloud disk
	// buckets (e.g. "夸克网盘"). Empty means the default set.
	PreferredCloudTypes []string `json:"cloud_type,omitempty"`

	// SaveSpaceMode makes quark-auto-save tasks keep only the latest
	// episodes when saving series.
	SaveSpaceMode bool `json:"save_space_mode,omitempty"`
}

// DefaultUserSettings returns the settings applied to accounts that never
// opened the settings menu.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		PreferredCloudTypes: []string{CloudTypeQuark},
	}
}

// EffectiveCloudTypes returns the preferred cloud types, falling back to the
// default set when none are configured.
func (s UserSettings) EffectiveCloudTypes() []string {
	if len(s.PreferredCloudTypes) == 0 {
		return []string{CloudTypeQuark}
	}
	return s.PreferredCloudTypes
}
