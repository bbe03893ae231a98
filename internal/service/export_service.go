package service

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/pkg/export"
	"github.com/campushub/admissions-agent-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders classified ranking results into downloadable CSV or
// PDF files behind signed URLs.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders and stores one ranking export, returning a signed URL.
func (s *ExportService) Generate(courseID string, result *models.RankingResult, format models.ExportFormat) (*ExportResult, error) {
	if result == nil {
		return nil, fmt.Errorf("ranking result nil")
	}
	dataset := rankingDataset(result)
	title := fmt.Sprintf("Admission ranking for course %s", courseID)

	var payload []byte
	var err error
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("rankings/%s-%d.%s", courseID, time.Now().UTC().UnixNano(), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(courseID, relPath)
	if err != nil {
		return nil, err
	}

	prefix := s.cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/rankings/download/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Open validates a download token and opens the stored export file.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", fmt.Errorf("invalid or expired download token: %w", err)
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", fmt.Errorf("open export file: %w", err)
	}
	return file, relPath, nil
}

// Cleanup removes exports older than the configured TTL.
func (s *ExportService) Cleanup() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("export cleanup completed", zap.Int("removed", len(removed)))
	}
}

func rankingDataset(result *models.RankingResult) export.Dataset {
	headers := []string{"Rank", "Applicant", "APS Score", "Tier"}
	rows := make([]map[string]string, 0, result.Size())
	appendTier := func(tier models.AdmissionTier, entries []models.RankedApplicant) {
		for _, entry := range entries {
			rows = append(rows, map[string]string{
				"Rank":      strconv.Itoa(entry.Rank),
				"Applicant": entry.ApplicantName,
				"APS Score": strconv.FormatFloat(entry.APSScore, 'f', 1, 64),
				"Tier":      string(tier),
			})
		}
	}
	appendTier(models.TierAutoAccept, result.AutoAccept)
	appendTier(models.TierConditional, result.Conditional)
	appendTier(models.TierWaitlist, result.Waitlist)
	appendTier(models.TierRejected, result.Rejected)
	return export.Dataset{Headers: headers, Rows: rows}
}
