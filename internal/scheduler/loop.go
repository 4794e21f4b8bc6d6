package scheduler

import (
	"context"
	"time"
)

// RunFixed вызывает step с фиксированной частотой, пока не отменён ctx.
// Пропущенные тики не догоняются: один такт таймера = один кадр.
func RunFixed(ctx context.Context, rate time.Duration, step func()) error {
	if rate <= 0 {
		rate = FrameDuration
	}
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			step()
		}
	}
}
