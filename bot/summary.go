package bot

import (
	"context"
	"fmt"
	"guestlist/lib/sl"
	"time"

	"github.com/go-co-op/gocron/v2"
)

func (t *TgBot) startSummary(interval time.Duration) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(t.sendSummary),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("create summary job: %w", err)
	}
	s.Start()
	t.scheduler = s
	t.log.With("interval", interval.String()).Info("summary scheduled")
	return nil
}

func (t *TgBot) sendSummary() {
	if t.core == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	stats, err := t.core.GuestStats(ctx)
	if err != nil {
		t.log.Warn("summary stats", sl.Err(err))
		return
	}
	t.notifyAdmins(formatStats(stats))
}
