package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/clients/exchangerate"
	"github.com/mstamatakis/drachma/internal/events"
	"github.com/mstamatakis/drachma/internal/persist"
	"github.com/mstamatakis/drachma/internal/reliability"
	"github.com/mstamatakis/drachma/internal/session"
	"github.com/mstamatakis/drachma/internal/store"
)

// RateRefreshJob periodically refreshes the exchange-rate table.
type RateRefreshJob struct {
	Refresher *exchangerate.Refresher
	Base      string
	Bus       *events.Bus
	Timeout   time.Duration
}

// Name implements Job.
func (j *RateRefreshJob) Name() string { return "rate_refresh" }

// Run implements Job. The context bounds the whole retry loop.
func (j *RateRefreshJob) Run() error {
	timeout := j.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := j.Refresher.Refresh(ctx, j.Base)
	if err != nil {
		return err
	}
	if j.Bus != nil {
		j.Bus.Publish(events.RatesRefreshed, "scheduler", &events.RatesRefreshedData{
			Base:     result.Base,
			Rates:    result.Stored,
			Attempts: result.Attempts,
		})
	}
	return nil
}

// SnapshotJob persists the store tables to the local sqlite snapshot.
type SnapshotJob struct {
	Session   *session.Session
	Persister *persist.SQLitePersister
	Log       zerolog.Logger
}

// Name implements Job.
func (j *SnapshotJob) Name() string { return "snapshot" }

// Run implements Job.
func (j *SnapshotJob) Run() error {
	var buffers []store.TableBuffer
	j.Session.View(func(st *store.Store) {
		buffers = st.ExportTables()
	})
	return j.Persister.Save(buffers)
}

// BackupJob uploads a snapshot archive to cloud storage.
type BackupJob struct {
	Service *reliability.BackupService
	Session *session.Session
	Bus     *events.Bus
	Timeout time.Duration
}

// Name implements Job.
func (j *BackupJob) Name() string { return "backup" }

// Run implements Job.
func (j *BackupJob) Run() error {
	timeout := j.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var info *reliability.BackupInfo
	err := j.Session.Do(func(st *store.Store) error {
		var backupErr error
		info, backupErr = j.Service.Backup(ctx, st)
		return backupErr
	})
	if err != nil {
		return err
	}
	if j.Bus != nil {
		j.Bus.Publish(events.BackupCompleted, "scheduler", info)
	}
	return nil
}
