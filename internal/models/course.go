package models

import "time"

// Course is an entry in the course catalog.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"course_code" json:"course_code"`
	Name        string    `db:"name" json:"name"`
	Level       int       `db:"level" json:"level"`
	CreditHours int       `db:"credit_hours" json:"credit_hours"`
	MajorID     *string   `db:"major_id" json:"major_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows catalog listings.
type CourseFilter struct {
	Level   int
	MajorID string
	Search  string
}
