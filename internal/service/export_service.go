package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
	"github.com/noah-isme/uni-registration-api/pkg/export"
)

// ExportFormat selects the transcript rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type transcriptSource interface {
	Transcript(ctx context.Context, userID string) (*models.Transcript, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ExportResult is a rendered document ready to be sent as an attachment.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders transcripts to downloadable files.
type ExportService struct {
	transcripts transcriptSource
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to pkg/export.
func NewExportService(transcripts transcriptSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(export.WithBOM())
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{transcripts: transcripts, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ParseExportFormat accepts csv or pdf, defaulting to csv.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
}

// Transcript renders the user's transcript in the requested format.
func (s *ExportService) Transcript(ctx context.Context, userID string, format ExportFormat) (*ExportResult, error) {
	transcript, err := s.transcripts.Transcript(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := transcriptDataset(transcript)
	stamp := s.now().UTC().Format("20060102")
	base := "transcript"
	if transcript.Number != "" {
		base += "-" + transcript.Number
	}

	var result ExportResult
	switch format {
	case ExportFormatPDF:
		subtitle := transcript.FullName
		if transcript.Number != "" {
			subtitle = fmt.Sprintf("%s (%s)", transcript.FullName, transcript.Number)
		}
		body, err := s.pdf.Render(data, "Academic Transcript", subtitle)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		result = ExportResult{Filename: fmt.Sprintf("%s-%s.pdf", base, stamp), ContentType: "application/pdf", Body: body}
	default:
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		result = ExportResult{Filename: fmt.Sprintf("%s-%s.csv", base, stamp), ContentType: "text/csv; charset=utf-8", Body: body}
	}
	s.logger.Debug("transcript exported", zap.String("user_id", userID), zap.String("format", string(format)), zap.Int("bytes", len(result.Body)))
	return &result, nil
}

func transcriptDataset(t *models.Transcript) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Code", "Course", "Credits", "Grade", "Points"},
		Rows:    make([]map[string]string, 0, len(t.Lines)),
	}
	for _, line := range t.Lines {
		data.Rows = append(data.Rows, map[string]string{
			"Code":    line.CourseCode,
			"Course":  line.CourseName,
			"Credits": strconv.Itoa(line.CreditHours),
			"Grade":   line.Grade,
			"Points":  strconv.FormatFloat(line.QualityPts, 'f', 2, 64),
		})
	}
	data.Summary = [][2]string{
		{"Total credits", strconv.Itoa(t.Summary.TotalCredits)},
		{"Quality points", strconv.FormatFloat(t.Summary.TotalPoints, 'f', 2, 64)},
		{"GPA", strconv.FormatFloat(t.Summary.GPA, 'f', 2, 64)},
	}
	return data
}
