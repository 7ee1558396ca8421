package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	passLockKey    = "lock:progress:reconcile"
	defaultLockTTL = 55 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PassLock serialises reconciliation passes across instances sharing one
// Redis. The TTL bounds how long a crashed holder can block others.
type PassLock struct {
	client *redis.Client
	ttl    time.Duration
	token  string
}

// NewPassLock creates a PassLock. A ttl <= 0 uses defaultLockTTL.
func NewPassLock(client *redis.Client, ttl time.Duration) *PassLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &PassLock{client: client, ttl: ttl, token: newToken()}
}

// Acquire reports whether this instance now holds the lock.
func (l *PassLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, passLockKey, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("pass lock acquire: %w", err)
	}
	return ok, nil
}

// Release frees the lock if this instance still holds it.
func (l *PassLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{passLockKey}, l.token).Err(); err != nil {
		return fmt.Errorf("pass lock release: %w", err)
	}
	return nil
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
