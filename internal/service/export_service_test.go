package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

type mockReportLister struct {
	reports []models.Report
	err     error
}

func (m *mockReportLister) GetAll(ctx context.Context, auth upstream.Auth) ([]models.Report, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.reports, nil
}

func TestExportReportsCSV(t *testing.T) {
	reports := []models.Report{
		{ID: 1, Title: "Week one", WeekNumber: 1, ProgressPercentage: 40, UserDetail: &models.ReportAuthor{Username: "alice"}},
		{ID: 2, Title: "Week two", WeekNumber: 2, ProgressPercentage: 80},
	}
	svc := NewExportService(&mockReportLister{reports: reports}, 100, zap.NewNop())

	res, err := svc.Reports(context.Background(), upstream.Auth{}, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "reports.csv", res.Filename)
	assert.Equal(t, "text/csv", res.ContentType)

	content := string(res.Body)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Week,Title,Author,Progress,Created", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Week one")
	assert.Contains(t, lines[1], "alice")
	assert.Contains(t, lines[1], "40%")
}

func TestExportReportsPDF(t *testing.T) {
	svc := NewExportService(&mockReportLister{reports: []models.Report{{ID: 1, Title: "Week one", WeekNumber: 1}}}, 100, zap.NewNop())

	res, err := svc.Reports(context.Background(), upstream.Auth{}, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "reports.pdf", res.Filename)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.True(t, bytes.HasPrefix(res.Body, []byte("%PDF")))
}

func TestExportReportsUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockReportLister{}, 100, zap.NewNop())

	_, err := svc.Reports(context.Background(), upstream.Auth{}, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportReportsTruncatesAtMaxRows(t *testing.T) {
	reports := make([]models.Report, 10)
	for i := range reports {
		reports[i] = models.Report{ID: i + 1, Title: "r", WeekNumber: i + 1}
	}
	svc := NewExportService(&mockReportLister{reports: reports}, 3, zap.NewNop())

	res, err := svc.Reports(context.Background(), upstream.Auth{}, FormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(res.Body)), "\n")
	assert.Len(t, lines, 4)
}