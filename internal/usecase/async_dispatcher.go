package usecase

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
)

const defaultAsyncTaskTimeout = 15 * time.Second

// AsyncDispatcher runs fire-and-forget side effects on a bounded pool. Tasks
// outlive the request that spawned them but keep its trace values.
type AsyncDispatcher struct {
	pool    *ants.Pool
	timeout time.Duration
	logger  *logging.Logger
}

func NewAsyncDispatcher(workers int, timeout time.Duration, logger *logging.Logger) (*AsyncDispatcher, error) {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = defaultAsyncTaskTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &AsyncDispatcher{
		pool:    pool,
		timeout: timeout,
		logger:  logger.With("component", "async_dispatcher"),
	}, nil
}

// Dispatch reports false when the task was dropped because the pool is full
// or released.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, name string, fn func(context.Context) error) bool {
	if d == nil || fn == nil {
		return false
	}

	taskCtx := context.WithoutCancel(ctx)
	err := d.pool.Submit(func() {
		runCtx, cancel := context.WithTimeout(taskCtx, d.timeout)
		defer cancel()

		if err := fn(runCtx); err != nil {
			d.logger.WarnContext(runCtx, "async task failed", "task", name, "error", err)
		}
	})
	if err != nil {
		d.logger.WarnContext(ctx, "async task dropped", "task", name, "error", err)
		return false
	}
	return true
}

func (d *AsyncDispatcher) Running() int {
	if d == nil {
		return 0
	}
	return d.pool.Running()
}

// Release waits up to timeout for queued tasks before closing the pool.
func (d *AsyncDispatcher) Release(timeout time.Duration) error {
	if d == nil {
		return nil
	}
	if timeout <= 0 {
		d.pool.Release()
		return nil
	}
	return d.pool.ReleaseTimeout(timeout)
}
