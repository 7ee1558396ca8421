package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

const progressChannelPrefix = "parcel:progress:"

// Notifier fans progress updates out over Redis pub/sub, one channel per
// parcel, so every API instance can serve live streams.
type Notifier struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewNotifier(client *redis.Client, log zerolog.Logger) *Notifier {
	return &Notifier{client: client, log: log}
}

func progressChannel(parcelID string) string {
	return progressChannelPrefix + parcelID
}

// Publish broadcasts one update. Having no subscribers is not an error.
func (n *Notifier) Publish(ctx context.Context, update domain.ProgressUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode progress update: %w", err)
	}
	if err := n.client.Publish(ctx, progressChannel(update.ParcelID), payload).Err(); err != nil {
		return fmt.Errorf("publish progress update: %w", err)
	}
	return nil
}

// Subscribe calls onChange for each update of parcelID. The subscription ends
// when unsubscribe is called or ctx is done, whichever comes first.
func (n *Notifier) Subscribe(ctx context.Context, parcelID string, onChange func(domain.ProgressUpdate)) (func() error, error) {
	ps := n.client.Subscribe(ctx, progressChannel(parcelID))

	// Wait for the confirmation so no update published after we return is lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe progress: %w", err)
	}

	var (
		once     sync.Once
		closeErr error
	)
	unsubscribe := func() error {
		once.Do(func() { closeErr = ps.Close() })
		return closeErr
	}

	go func() {
		defer func() { _ = unsubscribe() }()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var update domain.ProgressUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					n.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed progress message")
					continue
				}
				onChange(update)
			}
		}
	}()

	return unsubscribe, nil
}
