package kitchen

import (
	"context"
	"time"

	"smartkitchen/pkg/errors"
)

// Locker is a distributed lock; a worker holding none runs on every replica
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

func lockKey(worker string) string {
	return "lock:worker:" + worker
}

// acquire takes the worker lock when a locker is configured
func acquire(ctx context.Context, locker Locker, name string, ttl time.Duration) (func(), bool, error) {
	if locker == nil {
		return func() {}, true, nil
	}
	key := lockKey(name)
	ok, err := locker.AcquireLock(ctx, key, ttl)
	if err != nil {
		return nil, false, errors.Wrapf(err, "acquire %s", key)
	}
	if !ok {
		return nil, false, nil
	}
	return func() {
		// ctx may already be cancelled on shutdown
		_ = locker.ReleaseLock(context.WithoutCancel(ctx), key)
	}, true, nil
}
