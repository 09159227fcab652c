package core

// Default settings values.
const (
	DefaultMaxHistoryItems = 50
	DefaultMaxHistoryAge   = 30 // days
	DefaultMaxResponseSize = 1024 * 1024
)

// Settings controls history retention.
type Settings struct {
	MaxHistoryItems int  `json:"maxHistoryItems" yaml:"maxHistoryItems" validate:"gte=0"`
	MaxHistoryAge   int  `json:"maxHistoryAge" yaml:"maxHistoryAge" validate:"gte=0"`
	AutoCleanup     bool `json:"autoCleanup" yaml:"autoCleanup"`
	MaxResponseSize int  `json:"maxResponseSize" yaml:"maxResponseSize" validate:"gte=0"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		MaxHistoryItems: DefaultMaxHistoryItems,
		MaxHistoryAge:   DefaultMaxHistoryAge,
		AutoCleanup:     true,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	MaxHistoryItems *int  `json:"maxHistoryItems,omitempty" yaml:"maxHistoryItems,omitempty" validate:"omitempty,gte=0"`
	MaxHistoryAge   *int  `json:"maxHistoryAge,omitempty" yaml:"maxHistoryAge,omitempty" validate:"omitempty,gte=0"`
	AutoCleanup     *bool `json:"autoCleanup,omitempty" yaml:"autoCleanup,omitempty"`
	MaxResponseSize *int  `json:"maxResponseSize,omitempty" yaml:"maxResponseSize,omitempty" validate:"omitempty,gte=0"`
}

// Apply merges the patch over s.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.MaxHistoryItems != nil {
		s.MaxHistoryItems = *p.MaxHistoryItems
	}
	if p.MaxHistoryAge != nil {
		s.MaxHistoryAge = *p.MaxHistoryAge
	}
	if p.AutoCleanup != nil {
		s.AutoCleanup = *p.AutoCleanup
	}
	if p.MaxResponseSize != nil {
		s.MaxResponseSize = *p.MaxResponseSize
	}
	return s
}

// Patch returns a patch that sets every field of s.
func (s Settings) Patch() SettingsPatch {
	return SettingsPatch{
		MaxHistoryItems: &s.MaxHistoryItems,
		MaxHistoryAge:   &s.MaxHistoryAge,
		AutoCleanup:     &s.AutoCleanup,
		MaxResponseSize: &s.MaxResponseSize,
	}
}
