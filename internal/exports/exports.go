// Package exports writes poll voter detail as CSV and ships it to object storage.
package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pollify/backend/internal/models"
	"github.com/pollify/backend/pkg/queue"
	"github.com/pollify/backend/pkg/storage"
)

// Payload is the body of a results export job.
type Payload struct {
	PollID uuid.UUID `json:"poll_id"`
}

// DetailSource computes the voter detail of a poll.
type DetailSource interface {
	ComputeVoterDetail(ctx context.Context, pollID uuid.UUID) ([]models.OptionVoters, error)
}

// Uploader stores an export under key and returns where it can be downloaded.
type Uploader interface {
	UploadExport(ctx context.Context, key string, body io.Reader) (string, error)
}

var header = []string{"option_id", "option_text", "name", "email", "voted_at"}

// WriteCSV writes one row per vote. Missing identity fields are empty cells.
func WriteCSV(w io.Writer, detail []models.OptionVoters) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, o := range detail {
		for _, v := range o.Voters {
			rec := []string{o.OptionID.String(), o.OptionText, deref(v.Name), deref(v.Email), v.CreatedAt.UTC().Format(time.RFC3339)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Processor runs results export jobs.
type Processor struct {
	detail   DetailSource
	uploader Uploader
	logger   *zap.Logger
}

// NewProcessor creates an export processor.
func NewProcessor(detail DetailSource, uploader Uploader, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{detail: detail, uploader: uploader, logger: logger}
}

// Process builds the CSV for the job's poll and uploads it.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeResultsExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload Payload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	detail, err := p.detail.ComputeVoterDetail(ctx, payload.PollID)
	if err != nil {
		return fmt.Errorf("voter detail: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, detail); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	key := storage.ExportKey(payload.PollID.String(), job.ID)
	url, err := p.uploader.UploadExport(ctx, key, &buf)
	if err != nil {
		return fmt.Errorf("upload export: %w", err)
	}
	p.logger.Info("results export completed",
		zap.String("poll_id", payload.PollID.String()),
		zap.String("job_id", job.ID),
		zap.String("key", key),
		zap.String("url", url),
	)
	return nil
}
