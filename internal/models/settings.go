package models

import "time"

// SystemSettings is the typed, single-row system configuration.
type SystemSettings struct {
	RegistrationStart *time.Time `db:"registration_start" json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time `db:"registration_end" json:"registration_end,omitempty"`
	MaxCreditHours    int        `db:"max_credit_hours" json:"max_credit_hours"`
	MaintenanceMode   bool       `db:"maintenance_mode" json:"maintenance_mode"`
	SystemMessage     string     `db:"system_message" json:"system_message"`
	UpdatedBy         *string    `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// DefaultSystemSettings is served until an admin saves the first record.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{MaxCreditHours: 18}
}

// RegistrationOpen reports whether students may register at now.
func (s SystemSettings) RegistrationOpen(now time.Time) bool {
	if s.MaintenanceMode {
		return false
	}
	if s.RegistrationStart != nil && now.Before(*s.RegistrationStart) {
		return false
	}
	if s.RegistrationEnd != nil && now.After(*s.RegistrationEnd) {
		return false
	}
	return true
}
