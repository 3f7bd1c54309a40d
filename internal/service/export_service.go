package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
	"github.com/eduplatform/gateway/pkg/export"
)

// ExportFormat identifies a report download format.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// reportLister is the upstream slice the export layer consumes.
type reportLister interface {
	GetAll(ctx context.Context, auth upstream.Auth) ([]models.Report, error)
}

// ExportResult is a rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the caller's weekly reports into a portable file.
type ExportService struct {
	reports reportLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	maxRows int
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportLister, maxRows int, logger *zap.Logger) *ExportService {
	if maxRows <= 0 {
		maxRows = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		maxRows: maxRows,
		logger:  logger,
	}
}

// Reports fetches the visible reports and renders them in the requested
// format.
func (s *ExportService) Reports(ctx context.Context, auth upstream.Auth, format ExportFormat) (*ExportResult, error) {
	reports, err := s.reports.GetAll(ctx, auth)
	if err != nil {
		return nil, err
	}
	if len(reports) > s.maxRows {
		reports = reports[:s.maxRows]
	}

	dataset := reportDataset(reports)

	switch format {
	case FormatCSV:
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Filename: "reports.csv", ContentType: "text/csv", Body: body}, nil
	case FormatPDF:
		body, err := s.pdf.Render(dataset, "Weekly Progress Reports")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Filename: "reports.pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func reportDataset(reports []models.Report) export.Dataset {
	headers := []string{"Week", "Title", "Author", "Progress", "Created"}
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		author := ""
		if r.UserDetail != nil {
			author = r.UserDetail.Username
		}
		rows = append(rows, map[string]string{
			"Week":     strconv.Itoa(r.WeekNumber),
			"Title":    r.Title,
			"Author":   author,
			"Progress": strconv.Itoa(r.ProgressPercentage) + "%",
			"Created":  r.CreatedAt,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
