package flow

import (
	"conncheck/internal/types"
	"context"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ClientCache lazily builds one client handle and hands the same handle to every caller.
// Construction runs at most once between resets, including when it fails: a failed build
// is cached and returned again until Reset is called.
// Get is safe for concurrent use; concurrent first calls wait for the single build.
type ClientCache[T any] struct {
	name  string
	build func(ctx context.Context) (T, error)

	mu     sync.Mutex
	built  bool
	val    T
	err    error
	builds int
}

func NewClientCache[T any](name string, build func(ctx context.Context) (T, error)) *ClientCache[T] {
	return &ClientCache[T]{name: name, build: build}
}

// Get returns the cached handle, building it on first use. On failure the error wraps
// types.ErrClientInit and the returned handle is the zero value.
func (c *ClientCache[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return c.val, c.err
	}

	log.WithField("client", c.name).Debug("Initializing client")
	c.builds++
	v, err := c.build(ctx)
	c.built = true
	if err != nil {
		var zero T
		c.val = zero
		c.err = fmt.Errorf("%w: %s: %w", types.ErrClientInit, c.name, err)
		log.WithError(err).WithField("client", c.name).Error("Client initialization failed")
		return zero, c.err
	}
	c.val = v
	c.err = nil
	log.WithField("client", c.name).Info("Client initialized")
	return v, nil
}

// Reset drops the cached handle (or cached failure). The next Get builds again.
func (c *ClientCache[T]) Reset() {
	c.mu.Lock()
	var zero T
	c.val, c.err, c.built = zero, nil, false
	c.mu.Unlock()
}

// Close releases a successfully built handle that implements io.Closer and resets the cache.
// A cache that was never built, or whose build failed, has nothing to close.
func (c *ClientCache[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if closer, ok := any(c.val).(io.Closer); ok && c.built && c.err == nil {
		err = closer.Close()
		log.WithError(err).WithField("client", c.name).Debug("Client closed")
	}
	var zero T
	c.val, c.err, c.built = zero, nil, false
	if err != nil {
		return fmt.Errorf("close %s: %w", c.name, err)
	}
	return nil
}

// Built reports whether a build has been attempted since the last reset.
func (c *ClientCache[T]) Built() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.built
}

// Builds is the number of construction attempts over the cache's lifetime.
func (c *ClientCache[T]) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}

func (c *ClientCache[T]) Name() string { return c.name }
