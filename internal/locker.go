package internal

import (
	"context"
	"sync"
)

// LocalLocker serializes work per key inside one process. Entries are
// reference counted and removed when the last holder or waiter leaves, so the
// map does not grow with every reference id ever seen.
type LocalLocker struct {
	mutex sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		locks: make(map[string]*keyLock),
	}
}

// Lock blocks until the key is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mutex.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mutex.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.release(key, lock)
		})
	}, nil
}

func (l *LocalLocker) release(key string, lock *keyLock) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *LocalLocker) size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.locks)
}
