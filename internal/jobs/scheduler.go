package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/config"
)

// Notifier delivers a plain text message to a Telegram chat
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Scheduler runs background jobs on their configured schedules
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
}

// NewScheduler registers the sweep and report jobs
func NewScheduler(cfg config.JobsConfig, sweep *SweepJob, report *ReportJob, logger *logrus.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger})))

	if _, err := c.AddJob(cfg.SweepCron, sweep); err != nil {
		return nil, err
	}
	if _, err := c.AddJob(cfg.ReportCron, report); err != nil {
		return nil, err
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.logger.Infof("Starting job scheduler with %d jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stopped before running jobs finished")
	}
}

// cronLogger adapts logrus to cron.Logger
type cronLogger struct {
	logger *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			f[key] = keysAndValues[i+1]
		}
	}
	return f
}
