package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JanitorStore is the maintenance slice of the database: expire links that
// outlived their deadline and drop drafts already superseded by a submission.
type JanitorStore interface {
	DeactivateExpiredLinks(now time.Time) (int, error)
	PurgeSubmittedDrafts(cutoff time.Time) (int, error)
}

// Janitor runs periodic cleanup. Expired links stay resolvable as "expired"
// either way; deactivating them just keeps list views honest. Submitted
// drafts are kept for a grace window before purge so a respondent who closes
// the tab right after submitting still sees the confirmation on reload.
type Janitor struct {
	store JanitorStore
	log   *zap.Logger
	cron  *cron.Cron

	retention time.Duration
}

func NewJanitor(store JanitorStore, log *zap.Logger) *Janitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Janitor{
		store:     store,
		log:       log,
		cron:      cron.New(),
		retention: 7 * 24 * time.Hour,
	}
}

// Start schedules the hourly sweep. Call Stop on shutdown.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@every 1h", j.sweep); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) sweep() {
	now := time.Now().UTC()
	if n, err := j.store.DeactivateExpiredLinks(now); err != nil {
		j.log.Warn("janitor: deactivate expired links", zap.Error(err))
	} else if n > 0 {
		j.log.Info("janitor: deactivated expired links", zap.Int("count", n))
	}
	if n, err := j.store.PurgeSubmittedDrafts(now.Add(-j.retention)); err != nil {
		j.log.Warn("janitor: purge submitted drafts", zap.Error(err))
	} else if n > 0 {
		j.log.Info("janitor: purged submitted drafts", zap.Int("count", n))
	}
}
