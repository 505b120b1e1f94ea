package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mythicalsystems/dash-ledger/pkg/redis"
)

type Config struct {
	Stream        string
	ConsumerGroup string
	ConsumerName  string
	PollInterval  time.Duration
	BatchSize     int64
	MaxLen        int64
}

type Publisher struct {
	adapter redis.RedisAdapter
	config  Config
}

func NewPublisher(adapter redis.RedisAdapter, config Config) (*Publisher, error) {
	if config.Stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	return &Publisher{
		adapter: adapter,
		config:  config,
	}, nil
}

// Publish appends the event to the stream and returns the stream entry id.
func (p *Publisher) Publish(ctx context.Context, ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	values := map[string]interface{}{
		"data":      string(data),
		"kind":      ev.Kind,
		"timestamp": ev.OccurredAt.Unix(),
	}

	id, err := p.adapter.XAdd(p.config.Stream, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	if p.config.MaxLen > 0 {
		_ = p.adapter.XTrimApprox(p.config.Stream, p.config.MaxLen)
	}

	return id, nil
}
