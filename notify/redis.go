// ABOUTME: Redis-backed activity feed fanning committed activities out to subscribers
// ABOUTME: Publishes on a pub/sub channel and keeps a capped list of recent activities
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/studiocrm/models"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultChannel   = "crm:activity"
	DefaultRecentKey = "crm:activity:recent"
	DefaultRecentMax = 200
)

// RedisFeed implements engine.Publisher.
type RedisFeed struct {
	client    *redis.Client
	channel   string
	recentKey string
	recentMax int64
}

// NewRedisFeed connects to redisURL and verifies the connection.
func NewRedisFeed(redisURL string) (*RedisFeed, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisFeedWithClient(client), nil
}

// NewRedisFeedWithClient wraps an existing client.
func NewRedisFeedWithClient(client *redis.Client) *RedisFeed {
	return &RedisFeed{
		client:    client,
		channel:   DefaultChannel,
		recentKey: DefaultRecentKey,
		recentMax: DefaultRecentMax,
	}
}

// Publish sends the activity to subscribers and prepends it to the recent list.
func (f *RedisFeed) Publish(ctx context.Context, activity models.Activity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	pipe := f.client.TxPipeline()
	pipe.Publish(ctx, f.channel, payload)
	pipe.LPush(ctx, f.recentKey, payload)
	pipe.LTrim(ctx, f.recentKey, 0, f.recentMax-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

// Recent returns up to limit of the latest published activities, newest first.
func (f *RedisFeed) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 || int64(limit) > f.recentMax {
		limit = int(f.recentMax)
	}

	raw, err := f.client.LRange(ctx, f.recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent activities: %w", err)
	}

	activities := make([]models.Activity, 0, len(raw))
	for _, item := range raw {
		var a models.Activity
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("unmarshal activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}

// Subscribe returns a channel of activities published after the call. The
// channel closes when ctx is done.
func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan models.Activity, error) {
	sub := f.client.Subscribe(ctx, f.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan models.Activity)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var a models.Activity
				if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
					continue
				}
				select {
				case out <- a:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *RedisFeed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

func (f *RedisFeed) Close() error {
	return f.client.Close()
}
