package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

var (
	scheduleDaysEN = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday"}
	scheduleDaysAR = []string{"الأحد", "الإثنين", "الثلاثاء", "الأربعاء", "الخميس"}
	scheduleSlots  = []string{
		"08:00 - 09:30",
		"09:30 - 11:00",
		"11:00 - 12:30",
		"12:30 - 14:00",
		"14:00 - 15:30",
		"15:30 - 17:00",
	}
)

// ScheduleService lays enrolled courses out on a weekly grid.
type ScheduleService struct {
	enrollments enrollmentLister
	logger      *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(enrollments enrollmentLister, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{enrollments: enrollments, logger: logger}
}

// Weekly places the i-th active enrollment on day i mod 5 and slot (i div 5) mod 6.
func (s *ScheduleService) Weekly(ctx context.Context, userID, language string) ([]models.ScheduleSlot, error) {
	enrolled, err := s.enrollments.ListByUser(ctx, userID, models.EnrollmentStatusEnrolled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	return LayoutWeek(enrolled, language), nil
}

// LayoutWeek is the deterministic placement used by Weekly.
func LayoutWeek(enrolled []models.EnrollmentDetail, language string) []models.ScheduleSlot {
	days := scheduleDaysEN
	if language == "ar" {
		days = scheduleDaysAR
	}
	slots := make([]models.ScheduleSlot, 0, len(enrolled))
	for i, e := range enrolled {
		dayIndex := i % len(days)
		slots = append(slots, models.ScheduleSlot{
			Day:        days[dayIndex],
			DayIndex:   dayIndex,
			Time:       scheduleSlots[(i/len(days))%len(scheduleSlots)],
			CourseID:   e.CourseID,
			CourseCode: e.CourseCode,
			CourseName: e.CourseName,
			Location:   fmt.Sprintf("Building %c - Room %d", 'A'+rune(i%3), 101+i%10),
		})
	}
	return slots
}
