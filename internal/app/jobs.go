package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// mediaSweepGrace keeps freshly written files out of the sweep so an
// upload is never removed between the file write and the row insert.
const mediaSweepGrace = time.Hour

func (a *Application) initJob() {
	a.sched = cron.New()

	if !a.appConfig.MediaSweepDisabled {
		_, err := a.sched.AddFunc("@hourly", func() {
			a.SchedMediaSweepTask()
		})
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
		}
	}

	a.sched.Start()
}

// SchedMediaSweepTask removes upload files no product row references.
// Image file and row mutations are not transactional, so a failed
// request can strand a file on disk; this job is the cleanup path.
func (a *Application) SchedMediaSweepTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	referenced, err := a.products.ImageNames(context.Background())
	if err != nil {
		zap.L().Error("media sweep: failed to list referenced images", zap.Error(err))
		return
	}

	removed, err := a.media.Sweep(referenced, mediaSweepGrace)
	if err != nil {
		zap.L().Error("media sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		zap.L().Info("media sweep removed orphan files", zap.Int("count", removed))
	}
}
