package models

// StudentDashboard aggregates the counters shown on the student home screen.
type StudentDashboard struct {
	EnrolledCourses  int     `json:"enrolled_courses"`
	PendingRequests  int     `json:"pending_requests"`
	GPA              float64 `json:"gpa"`
	CompletedCredits int     `json:"completed_credits"`
	RegistrationOpen bool    `json:"registration_open"`
	SystemMessage    string  `json:"system_message,omitempty"`
}

// AdminDashboard aggregates roster and queue sizes.
type AdminDashboard struct {
	Students        int `db:"students" json:"students"`
	Advisors        int `db:"advisors" json:"advisors"`
	Courses         int `db:"courses" json:"courses"`
	Enrollments     int `db:"enrollments" json:"active_enrollments"`
	PendingRequests int `db:"pending_requests" json:"pending_requests"`
}

// StudentDetail is the advisor view of one student.
type StudentDetail struct {
	User
	Enrollments []EnrollmentDetail `json:"enrollments"`
	GPA         GPAResult          `json:"gpa"`
}
