// Package upload stores raw legal source files and tracks the async jobs
// that forward them to the answer backend for indexing.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/brain"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/common"
)

// JobPublisher enqueues an ingest job for the worker.
type JobPublisher interface {
	PublishIngest(ctx context.Context, jobID string) error
}

type Service struct {
	repo   *Repo
	pub    JobPublisher
	dir    string
	logger *zap.Logger
}

func NewService(repo *Repo, pub JobPublisher, dir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, pub: pub, dir: dir, logger: logger}
}

// Save writes the file to disk, records a document row and a queued job,
// and hands the job id to the queue.
func (s *Service) Save(ctx context.Context, userID uint64, filename string, src io.Reader, offenceNumber string) (*Document, *Job, error) {
	docID, err := common.NewULID()
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("upload dir: %w", err)
	}

	base := filepath.Base(filename)
	storedPath := filepath.Join(s.dir, docID+"_"+base)
	dst, err := os.Create(storedPath)
	if err != nil {
		return nil, nil, fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(storedPath)
		return nil, nil, fmt.Errorf("save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, nil, err
	}

	doc := &Document{
		ID:            docID,
		UserID:        userID,
		Filename:      base,
		StoredPath:    storedPath,
		OffenceNumber: offenceNumber,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		_ = os.Remove(storedPath)
		return nil, nil, err
	}

	jobID, err := common.NewULID()
	if err != nil {
		return nil, nil, err
	}
	job := &Job{
		ID:         jobID,
		UserID:     userID,
		DocumentID: doc.ID,
		Status:     JobQueued,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, nil, err
	}

	if err := s.pub.PublishIngest(ctx, job.ID); err != nil {
		// The queued row stays behind so the job can be re-enqueued later.
		s.logger.Error("publish ingest job",
			zap.String("job_id", job.ID),
			zap.Error(err))
		return nil, nil, err
	}

	s.logger.Info("upload queued",
		zap.Uint64("user_id", userID),
		zap.String("doc_id", doc.ID),
		zap.String("job_id", job.ID))
	return doc, job, nil
}

func (s *Service) GetDocument(ctx context.Context, id string) (*Document, error) {
	return s.repo.GetDocumentByID(ctx, id)
}

func (s *Service) ListDocuments(ctx context.Context, userID uint64) ([]Document, error) {
	return s.repo.ListDocumentsByUser(ctx, userID)
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJobByID(ctx, id)
}

// Process runs one ingest job to completion: reads the stored file, hands it
// to the backend, and records the indexing result. Called from the worker.
func (s *Service) Process(ctx context.Context, jobID string, ing brain.Ingestor) error {
	_ = s.repo.UpdateJobStatusRunning(ctx, jobID)

	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	doc, err := s.repo.GetDocumentByID(ctx, job.DocumentID)
	if err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}

	content, err := os.ReadFile(doc.StoredPath)
	if err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}

	res, err := ing.IngestDocument(ctx, brain.IngestRequest{
		Filename:      doc.Filename,
		Content:       content,
		UserID:        fmt.Sprintf("%d", doc.UserID),
		OffenceNumber: doc.OffenceNumber,
	})
	if err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}

	if err := s.repo.SetDocumentIndexed(ctx, doc.ID, res.DocID, res.ChunksIndexed, res.DetectedOffenceNumber); err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}
	if err := s.repo.MarkJobSucceeded(ctx, jobID); err != nil {
		return err
	}

	s.logger.Info("document indexed",
		zap.String("doc_id", doc.ID),
		zap.String("job_id", jobID),
		zap.Int("chunks", res.ChunksIndexed))
	return nil
}
