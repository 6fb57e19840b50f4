package models

import "time"

// RequestType enumerates the changes a student can ask an advisor for.
type RequestType string

const (
	RequestTypeAdd  RequestType = "add"
	RequestTypeDrop RequestType = "drop"
	RequestTypeSwap RequestType = "swap"
)

// RequestStatus is the approval state. Approved and rejected are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Request is a student-initiated add/drop/swap awaiting advisor decision.
type Request struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"user_id"`
	Type           RequestType   `db:"type" json:"type"`
	CourseID       *string       `db:"course_id" json:"course_id,omitempty"`
	TargetCourseID *string       `db:"target_course_id" json:"target_course_id,omitempty"`
	Status         RequestStatus `db:"status" json:"status"`
	Message        *string       `db:"message" json:"message,omitempty"`
	DecidedBy      *string       `db:"decided_by" json:"decided_by,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestDetail joins student and course labels for the advisor queue.
type RequestDetail struct {
	Request
	StudentName      string  `db:"student_name" json:"student_name"`
	StudentNumber    *string `db:"student_number" json:"student_number,omitempty"`
	CourseCode       *string `db:"course_code" json:"course_code,omitempty"`
	CourseName       *string `db:"course_name" json:"course_name,omitempty"`
	TargetCourseCode *string `db:"target_course_code" json:"target_course_code,omitempty"`
}

// RequestFilter lists requests. An empty Status means all.
type RequestFilter struct {
	UserID   string
	Status   RequestStatus
	Page     int
	PageSize int
}
