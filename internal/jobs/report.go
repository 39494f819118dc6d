package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/constants"
	"xui-keys-bot/internal/services"
	"xui-keys-bot/internal/store"
)

// StatusChecker reports the health of configured servers
type StatusChecker interface {
	CheckAll(ctx context.Context) []services.ServerStatus
}

// ReportJob sends daily statistics to every admin
type ReportJob struct {
	store    *store.Store
	servers  StatusChecker
	notifier Notifier
	adminIDs []int64
	logger   *logrus.Logger
}

// NewReportJob creates the daily report job
func NewReportJob(st *store.Store, servers StatusChecker, notifier Notifier, adminIDs []int64, logger *logrus.Logger) *ReportJob {
	return &ReportJob{store: st, servers: servers, notifier: notifier, adminIDs: adminIDs, logger: logger}
}

// Run implements cron.Job
func (j *ReportJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.JobTimeout*time.Minute)
	defer cancel()

	if err := j.Send(ctx); err != nil {
		j.logger.Errorf("Daily report failed: %v", err)
	}
}

// Send builds the report and delivers it to all admins
func (j *ReportJob) Send(ctx context.Context) error {
	report, err := j.Build(ctx)
	if err != nil {
		return err
	}

	for _, id := range j.adminIDs {
		if err := j.notifier.Notify(ctx, id, report); err != nil {
			j.logger.Warnf("Failed to send daily report to admin %d: %v", id, err)
		}
	}
	return nil
}

// Build renders the report text
func (j *ReportJob) Build(ctx context.Context) (string, error) {
	stats, err := j.store.Stats(ctx)
	if err != nil {
		return "", err
	}

	status := "✅ All Systems Normal"
	if offline := services.OfflineCount(j.servers.CheckAll(ctx)); offline > 0 {
		status = fmt.Sprintf("⚠️ %d Servers Offline", offline)
	}

	return fmt.Sprintf("📊 Daily Report\n\nUsers: %d\nPremium: %d\nKeys: %d\nStatus: %s",
		stats.Users, stats.Premium, stats.Keys, status), nil
}
