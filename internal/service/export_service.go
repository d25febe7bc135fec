package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/pkg/export"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

// ExportFormat selects the rendering of a survey result download.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
)

// ParseExportFormat maps a query value to a format; empty means JSON.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatJSON:
		return ExportFormatJSON, nil
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// ExportFile is a rendered attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type csvRenderer interface {
	Render(sets ...export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(title string, sets ...export.Dataset) ([]byte, error)
}

var csvHeaders = []string{"question_order", "question", "question_type", "answer", "count"}

// ExportService renders survey results for their owner.
type ExportService struct {
	surveys   surveyReader
	questions questionLister
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the default exporters.
func NewExportService(surveys surveyReader, questions questionLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{surveys: surveys, questions: questions, csv: csv, pdf: pdf, logger: logger}
}

// Result loads a survey the actor owns together with all of its questions.
func (s *ExportService) Result(ctx context.Context, actor models.Actor, surveyID string) (*models.SurveyResult, error) {
	survey, err := findOwnedSurvey(ctx, s.surveys, actor, surveyID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load questions")
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return &models.SurveyResult{Survey: *survey, SurveyQuestions: questions}, nil
}

// Download renders the owner's survey result in the requested format.
func (s *ExportService) Download(ctx context.Context, actor models.Actor, surveyID string, format ExportFormat) (*ExportFile, error) {
	result, err := s.Result(ctx, actor, surveyID)
	if err != nil {
		return nil, err
	}

	var file *ExportFile
	switch format {
	case ExportFormatCSV:
		body, renderErr := s.csv.Render(csvDatasets(result)...)
		err = renderErr
		file = &ExportFile{Filename: "survey_result.csv", ContentType: "text/csv", Body: body}
	case ExportFormatPDF:
		body, renderErr := s.pdf.Render(result.Survey.Name, pdfDatasets(result)...)
		err = renderErr
		file = &ExportFile{Filename: "survey_result.pdf", ContentType: "application/pdf", Body: body}
	default:
		body, renderErr := json.MarshalIndent(result, "", "  ")
		err = renderErr
		file = &ExportFile{Filename: "survey_result.json", ContentType: "application/json", Body: body}
	}
	if err != nil {
		s.logger.Error("render survey result", zap.String("survey_id", surveyID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render survey result")
	}
	return file, nil
}

// csvDatasets flattens every question into rows of one shared table: one row per option
// for multiple choice and one row per response for free text.
func csvDatasets(result *models.SurveyResult) []export.Dataset {
	set := export.Dataset{Title: result.Survey.Name, Headers: csvHeaders}
	for _, q := range result.SurveyQuestions {
		base := map[string]string{
			"question_order": strconv.Itoa(q.Order),
			"question":       q.Name,
			"question_type":  string(q.Type),
		}
		if q.IsMultipleChoice() {
			for i, label := range q.PossibleAnswers {
				row := copyRow(base)
				row["answer"] = label
				row["count"] = strconv.FormatInt(tallyAt(q, i), 10)
				set.Rows = append(set.Rows, row)
			}
			continue
		}
		for _, response := range q.Responses {
			row := copyRow(base)
			row["answer"] = response
			set.Rows = append(set.Rows, row)
		}
	}
	return []export.Dataset{set}
}

// pdfDatasets renders one table per question.
func pdfDatasets(result *models.SurveyResult) []export.Dataset {
	sets := make([]export.Dataset, 0, len(result.SurveyQuestions))
	for _, q := range result.SurveyQuestions {
		title := fmt.Sprintf("%d. %s", q.Order, q.Name)
		if q.IsMultipleChoice() {
			set := export.Dataset{Title: title, Headers: []string{"answer", "count"}}
			for i, label := range q.PossibleAnswers {
				set.Rows = append(set.Rows, map[string]string{"answer": label, "count": strconv.FormatInt(tallyAt(q, i), 10)})
			}
			sets = append(sets, set)
			continue
		}
		set := export.Dataset{Title: title, Headers: []string{"#", "response"}}
		for i, response := range q.Responses {
			set.Rows = append(set.Rows, map[string]string{"#": strconv.Itoa(i + 1), "response": response})
		}
		sets = append(sets, set)
	}
	return sets
}

func tallyAt(q models.Question, i int) int64 {
	if i < len(q.Tally) {
		return q.Tally[i]
	}
	return 0
}

func copyRow(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src)+2)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
