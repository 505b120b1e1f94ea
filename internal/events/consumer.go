package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mythicalsystems/dash-ledger/pkg/logger"
	"github.com/mythicalsystems/dash-ledger/pkg/redis"
)

// Message wraps one raw stream entry handed to a Handler.
type Message struct {
	ID    string
	Event Event
}

// Handler processes one delivered event. A nil return acknowledges the
// entry; an error leaves it pending so the group can redeliver it.
type Handler func(ctx context.Context, msg *Message) error

type Consumer struct {
	adapter redis.RedisAdapter
	config  Config
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewConsumer(adapter redis.RedisAdapter, config Config) (*Consumer, error) {
	if config.Stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Consumer{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := c.adapter.XGroupCreateMkStream(config.Stream, config.ConsumerGroup, "0"); err != nil {
		// group might already exist, which is fine
	}

	return c, nil
}

// Consume starts the group-read loop in the background.
func (c *Consumer) Consume(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("event handler is required")
	}

	c.handler = handler
	c.wg.Add(1)

	go c.consumeLoop()

	return nil
}

func (c *Consumer) consumeLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.processMessages()
		}
	}
}

func (c *Consumer) processMessages() {
	entries, err := c.adapter.XReadGroup(
		c.config.ConsumerGroup,
		c.config.ConsumerName,
		c.config.Stream,
		">",
		c.config.BatchSize,
	)

	if err != nil {
		if err != redis.NilError {
			logger.Error("[events] read group failed", "stream", c.config.Stream, "error", err)
		}
		return
	}

	for _, entry := range entries {
		msg, err := c.decode(entry)
		if err != nil {
			// undecodable entries are acked away, retrying cannot fix them
			logger.Error("[events] dropping malformed entry", "id", entry.ID, "error", err)
			_ = c.ack(entry.ID)
			continue
		}

		if err := c.handler(c.ctx, msg); err != nil {
			// not acked, the group redelivers it to a later read
			continue
		}
		_ = c.ack(msg.ID)
	}
}

func (c *Consumer) decode(entry redis.StreamMessage) (*Message, error) {
	raw, ok := entry.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("entry %s has no data field", entry.ID)
	}

	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return &Message{ID: entry.ID, Event: ev}, nil
}

func (c *Consumer) ack(id string) error {
	return c.adapter.XAck(c.config.Stream, c.config.ConsumerGroup, id)
}

func (c *Consumer) Stop(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for consumer to stop")
	}
}

type Stats struct {
	TotalEvents   int64
	PendingEvents int64
}

func (c *Consumer) GetStats() (*Stats, error) {
	total, err := c.adapter.XLen(c.config.Stream)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalEvents: total}

	pending, err := c.adapter.XPending(c.config.Stream, c.config.ConsumerGroup)
	if err == nil && pending != nil {
		stats.PendingEvents = pending.Count
	}

	return stats, nil
}
