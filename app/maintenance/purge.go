package maintenance

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const purgeTimeout = time.Minute

type expiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Option func(*Purger)

// WithCron injects a preconfigured scheduler.
func WithCron(c *cron.Cron) Option {
	return func(p *Purger) {
		if c != nil {
			p.cron = c
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(p *Purger) {
		if now != nil {
			p.now = now
		}
	}
}

// Purger physically removes refresh token records past their expiry. Reads
// already ignore them, so the schedule only bounds table growth.
type Purger struct {
	sessions expiredSessionDeleter
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

func NewPurger(sessions expiredSessionDeleter, schedule string, opts ...Option) *Purger {
	p := &Purger{
		sessions: sessions,
		schedule: schedule,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cron == nil {
		p.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return p
}

// Start registers the purge job. An empty schedule disables it.
func (p *Purger) Start() error {
	if p.schedule == "" {
		logrus.Info("session purge disabled")
		return nil
	}

	if _, err := p.cron.AddFunc(p.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		if _, err := p.RunOnce(ctx); err != nil {
			logrus.WithError(err).Warn("session purge failed")
		}
	}); err != nil {
		return err
	}

	p.cron.Start()
	logrus.WithField("schedule", p.schedule).Info("session purge scheduled")
	return nil
}

// Stop halts the scheduler; the returned context is done once a running
// purge has finished.
func (p *Purger) Stop() context.Context {
	return p.cron.Stop()
}

func (p *Purger) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := p.sessions.DeleteExpired(ctx, p.now())
	if err != nil {
		return 0, err
	}

	metrics.SessionsPurged.Add(float64(deleted))
	if deleted > 0 {
		logrus.WithField("deleted", deleted).Info("expired sessions purged")
	}
	return deleted, nil
}
