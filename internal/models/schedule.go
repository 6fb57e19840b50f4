package models

// ScheduleSlot places an enrolled course in the weekly grid.
type ScheduleSlot struct {
	Day        string `json:"day"`
	DayIndex   int    `json:"day_index"`
	Time       string `json:"time"`
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Location   string `json:"location"`
}
