package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/benmeehan/imgmapon/pkg/s3"
	"github.com/rs/zerolog"
)

// ArchiveService uploads the files of a run to object storage under
// <prefix>/<run_id>/.
type ArchiveService struct {
	Storage s3.ObjectStorageClient
	Bucket  string
	Prefix  string
	Logger  zerolog.Logger
}

func (a *ArchiveService) Name() string {
	return "archive"
}

// Deliver uploads every file and keeps going past individual failures.
func (a *ArchiveService) Deliver(ctx context.Context, report *models.Report, files []string) error {
	var errs []error
	for _, f := range files {
		result, err := a.upload(ctx, report.RunID, f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		a.Logger.Info().
			Str("bucket", result.Bucket).
			Str("object", result.Object).
			Int64("size", result.Size).
			Str("url", result.PresignedURL).
			Msg("File archived")
	}
	return errors.Join(errs...)
}

func (a *ArchiveService) upload(ctx context.Context, runID, filePath string) (s3.UploadResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return s3.UploadResult{}, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return s3.UploadResult{}, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	object := path.Join(a.Prefix, runID, filepath.Base(filePath))
	return a.Storage.UploadFile(ctx, a.Bucket, object, f, info.Size(), contentType(filePath))
}

func contentType(filePath string) string {
	switch filepath.Ext(filePath) {
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
