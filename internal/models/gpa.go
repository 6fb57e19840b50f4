package models

// GradeEntry is one (grade, credit hours) pair fed to the GPA engine.
type GradeEntry struct {
	Grade       *string
	CreditHours int
}

// GPAResult summarises a GPA computation. GPA is rounded for display, RawGPA is not.
type GPAResult struct {
	GPA          float64 `json:"gpa"`
	RawGPA       float64 `json:"raw_gpa"`
	TotalPoints  float64 `json:"total_points"`
	TotalCredits int     `json:"total_credits"`
	CourseCount  int     `json:"course_count"`
}

// TranscriptLine is one completed course on the transcript.
type TranscriptLine struct {
	EnrollmentID string  `json:"enrollment_id"`
	CourseCode   string  `json:"course_code"`
	CourseName   string  `json:"course_name"`
	CreditHours  int     `json:"credit_hours"`
	Grade        string  `json:"grade"`
	GradePoints  float64 `json:"grade_points"`
	QualityPts   float64 `json:"quality_points"`
}

// Transcript lists completed courses with the cumulative summary.
type Transcript struct {
	StudentID string           `json:"student_id"`
	FullName  string           `json:"full_name"`
	Number    string           `json:"student_number,omitempty"`
	Lines     []TranscriptLine `json:"courses"`
	Summary   GPAResult        `json:"summary"`
}
