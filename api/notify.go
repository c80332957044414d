package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"todo-api/domain"
)

var (
	errNotifierClosed    = errors.New("change notifier closed")
	errNotifierSaturated = errors.New("change notifier saturated")
)

// publisher is the part of the Redis client the notifier needs.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotifierConfig tunes the change feed worker pool.
type NotifierConfig struct {
	Channel        string
	Workers        int
	Buffer         int
	PublishTimeout time.Duration
	HandoffTimeout time.Duration
}

func (c NotifierConfig) withDefaults() NotifierConfig {
	if c.Channel == "" {
		c.Channel = "todo-events"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Buffer < 0 {
		c.Buffer = 0
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	return c
}

// RedisNotifier publishes change events to a Redis channel from a pool of
// workers. Notify never blocks longer than the hand-off timeout; events that
// cannot be handed off, or arrive after Close, are dropped with a warning.
type RedisNotifier struct {
	cfg    NotifierConfig
	client publisher
	logger *log.Logger

	jobs     chan domain.ChangeEvent
	workerWG sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewRedisNotifier starts the worker pool.
func NewRedisNotifier(client publisher, cfg NotifierConfig, logger *log.Logger) *RedisNotifier {
	if client == nil {
		panic("redis client is required")
	}
	if logger == nil {
		panic("Logger is not initialized")
	}
	cfg = cfg.withDefaults()

	n := &RedisNotifier{
		cfg:    cfg,
		client: client,
		logger: logger,
		jobs:   make(chan domain.ChangeEvent, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		n.workerWG.Add(1)
		go n.worker(i)
	}
	logger.Infof("change notifier started, channel: %s, workers: %d, buffer: %d, timeout: %v, handoff: %v",
		cfg.Channel, cfg.Workers, cfg.Buffer, cfg.PublishTimeout, cfg.HandoffTimeout)
	return n
}

// Notify queues ev for publishing.
func (n *RedisNotifier) Notify(ev domain.ChangeEvent) {
	if err := n.handoff(ev); err != nil {
		n.logger.Warnf("dropping event %s for todo %d: %v", ev.Type, ev.TodoID, err)
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (n *RedisNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.jobs)
	n.mu.Unlock()

	n.workerWG.Wait()
}

func (n *RedisNotifier) worker(id int) {
	defer n.workerWG.Done()
	for ev := range n.jobs {
		if err := n.publish(ev); err != nil {
			n.logger.Errorf("publish failed, err: %v, event: %s, todo: %d, worker: %d", err, ev.Type, ev.TodoID, id)
		}
	}
}

func (n *RedisNotifier) publish(ev domain.ChangeEvent) error {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.PublishTimeout)
	defer cancel()
	return n.client.Publish(ctx, n.cfg.Channel, payload).Err()
}

// handoff queues ev, waiting at most HandoffTimeout for buffer space. The
// read lock keeps Close from closing jobs while a send is pending.
func (n *RedisNotifier) handoff(ev domain.ChangeEvent) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return errNotifierClosed
	}

	select {
	case n.jobs <- ev:
		return nil
	default:
	}
	if n.cfg.HandoffTimeout <= 0 {
		return errNotifierSaturated
	}

	timer := time.NewTimer(n.cfg.HandoffTimeout)
	defer timer.Stop()
	select {
	case n.jobs <- ev:
		return nil
	case <-timer.C:
		return errNotifierSaturated
	}
}
