package replication

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skyharbor-io/opsdeck/internal/infrastructure/logging"
)

// Poller periodically reconciles local state against a full remote reload.
// It is the fallback for a silently dead change feed and runs on a fixed
// interval with no backoff; a failed cycle just waits for the next tick.
type Poller struct {
	replicator *Replicator
	interval   time.Duration
	logger     *logging.Logger

	stop    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewPoller creates a poller over the replicator's reconcile path.
func NewPoller(replicator *Replicator, interval time.Duration, logger *logging.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Poller{
		replicator: replicator,
		interval:   interval,
		logger:     logger.Named("poller"),
		stop:       make(chan struct{}),
	}
}

// Start begins the reconcile loop.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop terminates the loop.
func (p *Poller) Stop() {
	p.stopped.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.replicator.Reconcile(ctx); err != nil {
				p.logger.Warn("Reconcile cycle failed", zap.Error(err))
			}
		}
	}
}
