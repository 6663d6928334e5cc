package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/orderdesk/internal/transfer"
	"github.com/angelmondragon/orderdesk/pkg/logger"
)

const BackupJobName = "csv-backup"

type backupService interface {
	BackupAll(ctx context.Context) ([]transfer.BackupResult, error)
}

// BackupJob uploads CSV exports of every kind to blob storage.
type BackupJob struct {
	svc  backupService
	logg *logger.Logger
}

func NewBackupJob(svc backupService, logg *logger.Logger) (*BackupJob, error) {
	if svc == nil {
		return nil, fmt.Errorf("transfer service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &BackupJob{svc: svc, logg: logg}, nil
}

func (j *BackupJob) Name() string { return BackupJobName }

// Run uploads what it can; a failed kind does not stop the others but fails the job.
func (j *BackupJob) Run(ctx context.Context) error {
	results, err := j.svc.BackupAll(ctx)
	for _, res := range results {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"kind": res.Kind.String(),
			"key":  res.Key,
			"rows": res.Rows,
		}), "backup uploaded")
	}
	if err != nil {
		return fmt.Errorf("csv backup: %w", err)
	}
	return nil
}
