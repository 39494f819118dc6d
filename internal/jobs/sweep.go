package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/constants"
	"xui-keys-bot/internal/store"
)

// MsgDowngraded is sent to users whose premium plan ran out
const MsgDowngraded = "⚠️ Your Premium subscription has expired. Your keys have been removed. Use /premium to renew."

// KeyRevoker removes every key of a user
type KeyRevoker interface {
	RevokeAll(ctx context.Context, tgID int64) error
}

// SweepJob downgrades users whose premium plan has expired
type SweepJob struct {
	store    *store.Store
	keys     KeyRevoker
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

// NewSweepJob creates the expiry sweep job
func NewSweepJob(st *store.Store, keys KeyRevoker, notifier Notifier, logger *logrus.Logger) *SweepJob {
	return &SweepJob{store: st, keys: keys, notifier: notifier, logger: logger, now: time.Now}
}

// Run implements cron.Job
func (j *SweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.JobTimeout*time.Minute)
	defer cancel()

	if n, err := j.Sweep(ctx); err != nil {
		j.logger.Errorf("Expiry sweep failed: %v", err)
	} else if n > 0 {
		j.logger.Infof("Expiry sweep downgraded %d users", n)
	}
}

// Sweep downgrades every expired user and returns how many were processed
func (j *SweepJob) Sweep(ctx context.Context) (int, error) {
	users, err := j.store.ExpiredPremiumUsers(ctx, j.now())
	if err != nil {
		return 0, err
	}

	downgraded := 0
	for _, user := range users {
		log := j.logger.WithField("user", user.TgID)

		if err := j.keys.RevokeAll(ctx, user.TgID); err != nil {
			log.Warnf("Some keys were not removed: %v", err)
		}
		if err := j.store.Downgrade(ctx, user.TgID); err != nil {
			log.Errorf("Failed to downgrade: %v", err)
			continue
		}
		downgraded++
		log.Info("Downgraded expired premium user")

		// The user may have blocked the bot
		if err := j.notifier.Notify(ctx, user.TgID, MsgDowngraded); err != nil {
			log.Debugf("Could not notify: %v", err)
		}
	}

	return downgraded, nil
}
