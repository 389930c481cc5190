package internal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps lock keys in memory; expiration is not simulated.
type fakeRedis struct {
	mutex  sync.Mutex
	values map[string]string
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) get(key string) (string, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	value, ok := f.values[key]
	return value, ok
}

func newTestRedisLocker(client RedisClient) *RedisLocker {
	conf := testConfig()
	conf.Redis.KeyPrefix = "ticketpay"
	conf.Redis.LockTTL = 30
	locker := NewRedisLocker(client, conf, nopLogger())
	locker.poll = time.Millisecond
	return locker
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	client := newFakeRedis()
	locker := newTestRedisLocker(client)

	unlock, err := locker.Lock(context.Background(), "TICKET-42")
	require.NoError(t, err)
	_, held := client.get("ticketpay:lock:TICKET-42")
	assert.True(t, held)

	unlock()
	_, held = client.get("ticketpay:lock:TICKET-42")
	assert.False(t, held)
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	locker := newTestRedisLocker(newFakeRedis())
	unlock, err := locker.Lock(context.Background(), "TICKET-42")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(context.Background(), "TICKET-42")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not acquired after release")
	}
}

func TestRedisLocker_ContextDone(t *testing.T) {
	locker := newTestRedisLocker(newFakeRedis())
	unlock, err := locker.Lock(context.Background(), "TICKET-42")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "TICKET-42")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	client := newFakeRedis()
	locker := newTestRedisLocker(client)
	unlock, err := locker.Lock(context.Background(), "TICKET-42")
	require.NoError(t, err)

	// lock expired and was taken by another instance
	client.mutex.Lock()
	client.values["ticketpay:lock:TICKET-42"] = "other-token"
	client.mutex.Unlock()
	unlock()

	value, held := client.get("ticketpay:lock:TICKET-42")
	assert.True(t, held)
	assert.Equal(t, "other-token", value)
}

func TestRedisLocker_ClientError(t *testing.T) {
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	locker := newTestRedisLocker(client)

	_, err := locker.Lock(context.Background(), "TICKET-42")

	assert.ErrorContains(t, err, "connection refused")
}
