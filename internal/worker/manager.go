package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"inkwell/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second

	readErrorBackoff = time.Second
)

// ManagerConfig controls the cleanup worker pool. Zero values fall back to
// the defaults above and the media stream/group.
type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration

	Stream         string
	Group          string
	ConsumerPrefix string
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = DefaultBlockTimeout
	}
	if c.Stream == "" {
		c.Stream = queue.StreamMedia
	}
	if c.Group == "" {
		c.Group = queue.ConsumerGroupMedia
	}
	if c.ConsumerPrefix == "" {
		c.ConsumerPrefix = "cleanup"
	}
	return c
}

// Stats counts messages handled since Start. Failed messages are still acked.
type Stats struct {
	Handled int64
	Failed  int64
}

// Manager runs WorkerCount goroutines in one consumer group, each replaying
// its own pending entries before reading new ones.
type Manager struct {
	consumer queue.Consumer
	handler  *Handler
	cfg      ManagerConfig

	handled atomic.Int64
	failed  atomic.Int64

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	return &Manager{
		consumer: consumer,
		handler:  handler,
		cfg:      cfg.withDefaults(),
	}
}

// Start creates the consumer group if needed and launches the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.cfg.Stream, m.cfg.Group); err != nil {
		m.cancel()
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	for i := 1; i <= m.cfg.WorkerCount; i++ {
		name := fmt.Sprintf("%s-%d", m.cfg.ConsumerPrefix, i)
		m.wg.Add(1)
		go m.run(name)
	}

	log.Printf("[Manager] Started %d cleanup workers on stream=%s group=%s",
		m.cfg.WorkerCount, m.cfg.Stream, m.cfg.Group)
	return nil
}

// Stop cancels the workers and waits for in-flight batches to finish.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()

	s := m.Stats()
	log.Printf("[Manager] Cleanup workers stopped: handled=%d failed=%d", s.Handled, s.Failed)
}

func (m *Manager) Stats() Stats {
	return Stats{Handled: m.handled.Load(), Failed: m.failed.Load()}
}

func (m *Manager) run(consumer string) {
	defer m.wg.Done()

	// Entries delivered to this consumer before a crash come first.
	for m.ctx.Err() == nil {
		batch, err := m.consumer.ReadPending(m.ctx, m.cfg.Stream, m.cfg.Group, consumer, m.cfg.BatchSize)
		if err != nil {
			log.Printf("[Worker %s] Pending read failed: %v", consumer, err)
			break
		}
		if len(batch) == 0 {
			break
		}
		log.Printf("[Worker %s] Replaying %d pending messages", consumer, len(batch))
		m.handle(consumer, batch)
	}

	for m.ctx.Err() == nil {
		batch, err := m.consumer.Read(m.ctx, m.cfg.Stream, m.cfg.Group, consumer, m.cfg.BatchSize, m.cfg.BlockTimeout)
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			log.Printf("[Worker %s] Read failed: %v", consumer, err)
			select {
			case <-m.ctx.Done():
			case <-time.After(readErrorBackoff):
			}
			continue
		}
		m.handle(consumer, batch)
	}
}

// handle runs each event and acks it whatever the outcome.
func (m *Manager) handle(consumer string, batch []queue.Message) {
	for _, msg := range batch {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			m.failed.Add(1)
			log.Printf("[Worker %s] %s msgID=%s failed: %v", consumer, msg.Event.Type, msg.ID, err)
		} else {
			m.handled.Add(1)
		}

		if err := m.consumer.Ack(m.ctx, m.cfg.Stream, m.cfg.Group, msg.ID); err != nil {
			log.Printf("[Worker %s] Ack msgID=%s failed: %v", consumer, msg.ID, err)
		}
	}
}
