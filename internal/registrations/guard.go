package registrations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"eventreg/internal/shared/config"
	"eventreg/internal/shared/constants"
)

// InsertGuard brackets the dedupe, capacity check and insert of one registration
type InsertGuard interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// NewInsertGuard selects the guard for REGISTRATION_INSERT_MODE.
// Serialized mode uses a Redis lock when a client is given, else a process-local lock.
func NewInsertGuard(mode string, client *redis.Client, lockTTL time.Duration) (InsertGuard, error) {
	switch mode {
	case config.InsertUnsynchronized, "":
		return UnsynchronizedGuard{}, nil
	case config.InsertSerialized:
		if client != nil {
			return NewRedisGuard(client, constants.RegistrationLockKey, lockTTL), nil
		}
		return NewLocalGuard(), nil
	default:
		return nil, fmt.Errorf("unknown insert mode %q", mode)
	}
}

// UnsynchronizedGuard lets concurrent registrations interleave freely
type UnsynchronizedGuard struct{}

func (UnsynchronizedGuard) Acquire(context.Context) (func(), error) {
	return func() {}, nil
}

// LocalGuard serialises registrations within one process
type LocalGuard struct {
	sem chan struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{sem: make(chan struct{}, 1)}
}

func (g *LocalGuard) Acquire(ctx context.Context) (func(), error) {
	select {
	case g.sem <- struct{}{}:
		return func() { <-g.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const lockRetryInterval = 25 * time.Millisecond

// Deletes the lock only if it still holds our token
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Extends the lock only if it still holds our token
var renewLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisGuard serialises registrations across every replica sharing the Redis instance.
// The lock is renewed every ttl/3 while held, so a slow registration keeps it.
type RedisGuard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, key string, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, key: key, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	for {
		ok, err := g.client.SetNX(ctx, g.key, token, g.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire registration lock: %w", err)
		}
		if ok {
			return g.hold(token), nil
		}

		select {
		case <-time.After(lockRetryInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// hold keeps the lock alive until the returned release runs
func (g *RedisGuard) hold(token string) func() {
	renewCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(g.renewInterval())
		defer ticker.Stop()
		for {
			select {
			case <-renewCtx.Done():
				return
			case <-ticker.C:
				_ = renewLockScript.Run(renewCtx, g.client, []string{g.key}, token, g.ttl.Milliseconds()).Err()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done
			g.release(token)
		})
	}
}

func (g *RedisGuard) renewInterval() time.Duration {
	if interval := g.ttl / 3; interval > 0 {
		return interval
	}
	return time.Millisecond
}

func (g *RedisGuard) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// An expired lock has already been released by its TTL
	_ = releaseLockScript.Run(ctx, g.client, []string{g.key}, token).Err()
}
