package models

import "time"

// DefaultCheckInterval is the sweep period in hours when none is configured
const DefaultCheckInterval = 4

// Settings holds the user-level tracker preferences
type Settings struct {
	CheckInterval        int        `json:"checkInterval"` // hours
	LastChecked          *time.Time `json:"lastChecked,omitempty"`
	NotificationsEnabled bool       `json:"notificationsEnabled"`
	EmailEnabled         bool       `json:"emailEnabled"`
	EmailAddress         string     `json:"emailAddress,omitempty"`
}

// DefaultSettings returns the settings used before anything was saved
func DefaultSettings() Settings {
	return Settings{
		CheckInterval:        DefaultCheckInterval,
		NotificationsEnabled: true,
	}
}

// Interval returns the check interval as a duration, falling back to the default
func (s Settings) Interval() time.Duration {
	hours := s.CheckInterval
	if hours <= 0 {
		hours = DefaultCheckInterval
	}
	return time.Duration(hours) * time.Hour
}

// SettingsPatch is a partial settings update; nil fields are left untouched
type SettingsPatch struct {
	CheckInterval        *int       `json:"checkInterval,omitempty"`
	LastChecked          *time.Time `json:"lastChecked,omitempty"`
	NotificationsEnabled *bool      `json:"notificationsEnabled,omitempty"`
	EmailEnabled         *bool      `json:"emailEnabled,omitempty"`
	EmailAddress         *string    `json:"emailAddress,omitempty"`
}

// Apply shallow-merges the patch into s
func (p SettingsPatch) Apply(s *Settings) {
	if p.CheckInterval != nil && *p.CheckInterval > 0 {
		s.CheckInterval = *p.CheckInterval
	}
	if p.LastChecked != nil {
		t := *p.LastChecked
		s.LastChecked = &t
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.EmailEnabled != nil {
		s.EmailEnabled = *p.EmailEnabled
	}
	if p.EmailAddress != nil {
		s.EmailAddress = *p.EmailAddress
	}
}
