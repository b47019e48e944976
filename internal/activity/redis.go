package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/travelwallet/travelwallet/internal/metrics"
)

const (
	// streamKeyPrefix prefixes the per-tour Redis stream.
	streamKeyPrefix = "stream:tour:"

	// DefaultMaxStreamLen is the approximate max length of a tour stream.
	DefaultMaxStreamLen = 1000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 200 * time.Millisecond
)

// StreamKey returns the Redis stream holding a tour's activity.
func StreamKey(tourID string) string {
	return streamKeyPrefix + tourID + ":activity"
}

// RedisFeed stores activity in one capped Redis stream per tour.
type RedisFeed struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
	maxLen  int64
}

var _ Feed = (*RedisFeed)(nil)

// NewRedisFeed creates a feed on client. A non-positive maxLen uses DefaultMaxStreamLen.
func NewRedisFeed(client *redis.Client, maxLen int64, logger *slog.Logger, recorder metrics.Recorder) *RedisFeed {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxStreamLen
	}
	return &RedisFeed{
		redis:   client,
		logger:  logger.With("component", "activity.feed"),
		metrics: recorder,
		maxLen:  maxLen,
	}
}

// Publish adds an event to the tour's stream synchronously.
func (f *RedisFeed) Publish(ctx context.Context, event Event) (string, error) {
	if err := event.Validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	id, err := f.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(event.TourID),
		MaxLen: f.maxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		f.metrics.IncActivityPublished("dropped")
		return "", fmt.Errorf("xadd: %w", err)
	}

	f.metrics.IncActivityPublished("success")
	f.logger.Debug("activity event published",
		"tour_id", event.TourID,
		"type", string(event.Type),
		"stream_id", id,
	)
	return id, nil
}

// List returns up to limit events for a tour, newest first.
func (f *RedisFeed) List(ctx context.Context, tourID string, limit int) ([]Event, error) {
	msgs, err := f.redis.XRevRangeN(ctx, StreamKey(tourID), "+", "-", int64(clampLimit(limit))).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange: %w", err)
	}

	events := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		event, err := decodeMessage(msg)
		if err != nil {
			f.logger.Warn("skipping malformed activity entry",
				"tour_id", tourID,
				"stream_id", msg.ID,
				"error", err,
			)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Delete drops a tour's stream.
func (f *RedisFeed) Delete(ctx context.Context, tourID string) error {
	if err := f.redis.Del(ctx, StreamKey(tourID)).Err(); err != nil {
		return fmt.Errorf("delete activity stream: %w", err)
	}
	return nil
}

func decodeMessage(msg redis.XMessage) (Event, error) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return Event{}, fmt.Errorf("%w: missing payload", ErrInvalidEvent)
	}

	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}

	event.ID = msg.ID
	return event, nil
}
