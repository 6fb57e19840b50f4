package dto

// CourseRequest creates or replaces a catalog course.
type CourseRequest struct {
	Code        string  `json:"course_code" validate:"required,max=20"`
	Name        string  `json:"name" validate:"required,max=200"`
	Level       int     `json:"level" validate:"required,min=1,max=8"`
	CreditHours int     `json:"credit_hours" validate:"required,min=1,max=12"`
	MajorID     *string `json:"major_id"`
}

// MajorRequest creates or renames a major.
type MajorRequest struct {
	Code string `json:"code" validate:"required,max=20"`
	Name string `json:"name" validate:"required,max=200"`
}
