package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ksndmc/flow-api/internal/models"
	"github.com/ksndmc/flow-api/internal/repository"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
	"github.com/ksndmc/flow-api/pkg/export"
	"github.com/ksndmc/flow-api/pkg/jobs"
	"github.com/ksndmc/flow-api/pkg/storage"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportJobStatus, filePath, errMsg *string) error
}

type monthlyRowSource interface {
	MonthlyRows(ctx context.Context, from, to time.Time) ([]repository.MonthlyReportRow, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// ReportService generates monthly attendance exports asynchronously. The
// request creates a PENDING job, a queue worker renders the file and the
// caller fetches it later with a signed token.
type ReportService struct {
	jobsRepo reportJobStore
	rows     monthlyRowSource
	queue    jobDispatcher
	store    fileStore
	signer   *storage.SignedURLSigner
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(jobsRepo reportJobStore, rows monthlyRowSource, queue jobDispatcher, store fileStore, signer *storage.SignedURLSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		jobsRepo: jobsRepo,
		rows:     rows,
		queue:    queue,
		store:    store,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// CreateReportRequest describes the export request payload.
type CreateReportRequest struct {
	Month  string `json:"month" validate:"required"`
	Format string `json:"format" validate:"required"`
}

// RequestExport persists a new job and hands it to the queue.
func (s *ReportService) RequestExport(ctx context.Context, requestedBy string, req CreateReportRequest) (*models.ReportJob, error) {
	format := models.ReportFormat(strings.ToLower(req.Format))
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if _, _, err := monthRange(req.Month); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be YYYY-MM")
	}

	job := &models.ReportJob{
		RequestedBy: requestedBy,
		Format:      format,
		Month:       req.Month,
		Status:      models.ReportJobPending,
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "attendance-report"}); err != nil {
		msg := "failed to enqueue job"
		_ = s.jobsRepo.UpdateStatus(ctx, job.ID, models.ReportJobFailed, nil, &msg)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	s.logger.Info("report export queued",
		zap.String("job_id", job.ID),
		zap.String("month", job.Month),
		zap.String("format", string(job.Format)))
	return job, nil
}

// ReportStatus describes a job's progress to the client, including the
// signed download URL once the file is ready.
type ReportStatus struct {
	ID          string                 `json:"id"`
	Status      models.ReportJobStatus `json:"status"`
	Month       string                 `json:"month"`
	Format      models.ReportFormat    `json:"format"`
	DownloadURL *string                `json:"download_url,omitempty"`
	Error       *string                `json:"error,omitempty"`
}

// Status returns the current job state, refusing access to other users'
// jobs unless the caller is an admin.
func (s *ReportService) Status(ctx context.Context, id, actorID string, role models.Role) (*ReportStatus, error) {
	job, err := s.jobsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if role != models.RoleAdmin && job.RequestedBy != actorID {
		return nil, appErrors.ErrForbidden
	}

	status := &ReportStatus{
		ID:     job.ID,
		Status: job.Status,
		Month:  job.Month,
		Format: job.Format,
		Error:  job.Error,
	}
	if job.Status == models.ReportJobCompleted && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := "/api/v1/reports/download?token=" + token
		status.DownloadURL = &url
	}
	return status, nil
}

// ReportDownload carries a resolved download.
type ReportDownload struct {
	File     *os.File
	Filename string
	Format   models.ReportFormat
}

// ResolveDownload validates the signed token and opens the stored file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report file")
	}
	return &ReportDownload{File: file, Filename: relPath, Format: job.Format}, nil
}

// Process is the queue handler: it renders and stores the report file for
// one job.
func (s *ReportService) Process(ctx context.Context, job jobs.Job) error {
	record, err := s.jobsRepo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", job.ID, err)
	}
	if record.Status == models.ReportJobCompleted {
		return nil
	}

	if err := s.jobsRepo.UpdateStatus(ctx, record.ID, models.ReportJobProcessing, nil, nil); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}

	filename, err := s.render(ctx, record)
	if err != nil {
		msg := err.Error()
		_ = s.jobsRepo.UpdateStatus(ctx, record.ID, models.ReportJobFailed, nil, &msg)
		return err
	}

	if err := s.jobsRepo.UpdateStatus(ctx, record.ID, models.ReportJobCompleted, &filename, nil); err != nil {
		return fmt.Errorf("mark report job completed: %w", err)
	}
	s.logger.Info("report export completed",
		zap.String("job_id", record.ID),
		zap.String("file", filename))
	return nil
}

func (s *ReportService) render(ctx context.Context, job *models.ReportJob) (string, error) {
	from, to, err := monthRange(job.Month)
	if err != nil {
		return "", fmt.Errorf("bad report month %q: %w", job.Month, err)
	}

	rows, err := s.rows.MonthlyRows(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("load report rows: %w", err)
	}

	reportRows := make([]export.AttendanceRow, 0, len(rows))
	for _, row := range rows {
		reportRows = append(reportRows, export.AttendanceRow{
			Employee: row.UserName,
			Date:     row.Date.Format(models.DateOnly),
			Status:   string(row.Status),
			CheckIn:  deref(row.CheckIn),
			CheckOut: deref(row.CheckOut),
		})
	}
	dataset := export.AttendanceDataset(reportRows)

	var payload []byte
	switch job.Format {
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Attendance Report "+job.Month)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	filename := fmt.Sprintf("attendance-%s-%s.%s", job.Month, job.ID, job.Format)
	if _, err := s.store.Save(filename, payload); err != nil {
		return "", fmt.Errorf("store report: %w", err)
	}
	return filename, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
