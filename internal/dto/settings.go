package dto

import "time"

// UpdateSettingsRequest replaces the system settings record.
type UpdateSettingsRequest struct {
	RegistrationStart *time.Time `json:"registration_start"`
	RegistrationEnd   *time.Time `json:"registration_end"`
	MaxCreditHours    int        `json:"max_credit_hours" validate:"required,min=1,max=40"`
	MaintenanceMode   bool       `json:"maintenance_mode"`
	SystemMessage     string     `json:"system_message" validate:"max=500"`
}
