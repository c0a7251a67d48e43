package replay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultRetryBackoff = 100 * time.Millisecond

// sinkWriter retries a failed sink write with a doubling pause. A batch is
// only checkpointed once every sink accepted it, so giving up stops the
// replay rather than skipping the batch.
type sinkWriter struct {
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

func newSinkWriter(cfg Config, logger *zap.Logger) sinkWriter {
	w := sinkWriter{retries: cfg.MaxRetries, backoff: cfg.RetryBackoff, logger: logger}
	if w.retries < 0 {
		w.retries = 0
	}
	if w.backoff <= 0 {
		w.backoff = defaultRetryBackoff
	}
	return w
}

func (w sinkWriter) write(ctx context.Context, sink string, lr LineRange, fn func(context.Context) error) error {
	pause := w.backoff
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				w.logger.Info("sink write recovered", zap.String("sink", sink), zap.Int("attempt", attempt))
			}
			return nil
		}
		if attempt > w.retries {
			return fmt.Errorf("%s lines %d-%d after %d attempts: %w", sink, lr.From, lr.To, attempt, err)
		}
		w.logger.Warn("sink write failed",
			zap.String("sink", sink),
			zap.Uint64("from", lr.From),
			zap.Uint64("to", lr.To),
			zap.Int("attempt", attempt),
			zap.Duration("pause", pause),
			zap.Error(err),
		)

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		pause *= 2
	}
}
