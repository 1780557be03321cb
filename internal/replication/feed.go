package replication

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/skyharbor-io/opsdeck/internal/infrastructure/logging"
	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

const feedReconnectDelay = 3 * time.Second

// ChangeHandler consumes inbound change notifications.
type ChangeHandler interface {
	HandleChange(change types.Change)
}

// Feed subscribes to the remote store's change-notification WebSocket and
// forwards every event to the handler. Connection loss is retried on a
// fixed delay; gaps are covered by the polling fallback, not by the feed.
type Feed struct {
	url     string
	handler ChangeHandler
	logger  *logging.Logger

	stop    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup

	connMu sync.Mutex
	conn   *websocket.Conn // Protected by connMu
}

// NewFeed creates a feed for the given WebSocket URL.
func NewFeed(url string, handler ChangeHandler, logger *logging.Logger) *Feed {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Feed{
		url:     url,
		handler: handler,
		logger:  logger.Named("feed"),
		stop:    make(chan struct{}),
	}
}

// Start begins the subscribe loop.
func (f *Feed) Start(ctx context.Context) {
	f.wg.Add(1)
	go f.run(ctx)
}

// Stop terminates the loop and closes any open connection.
func (f *Feed) Stop() {
	f.stopped.Do(func() { close(f.stop) })

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
}

func (f *Feed) run(ctx context.Context) {
	defer f.wg.Done()

	for {
		select {
		case <-f.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := f.consume(ctx); err != nil {
			f.logger.Warn("Change feed disconnected", zap.Error(err))
		}

		select {
		case <-f.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(feedReconnectDelay):
		}
	}
}

func (f *Feed) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()

	defer func() {
		conn.Close()
		f.connMu.Lock()
		f.conn = nil
		f.connMu.Unlock()
	}()

	f.logger.Info("Change feed connected", zap.String("url", f.url))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var change types.Change
		if err := sonic.Unmarshal(data, &change); err != nil {
			f.logger.Warn("Discarding malformed change notification", zap.Error(err))
			continue
		}
		f.handler.HandleChange(change)
	}
}
