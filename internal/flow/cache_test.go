package flow

import (
	"conncheck/internal/types"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type fakeClient struct{ id int }

func (s *UnitTestSuite) TestClientCacheReturnsSameHandle() {
	calls := 0
	c := NewClientCache("firestore_db", func(ctx context.Context) (*fakeClient, error) {
		calls++
		return &fakeClient{id: calls}, nil
	})
	s.False(c.Built())

	a, err := c.Get(context.Background())
	s.NoError(err)
	b, err := c.Get(context.Background())
	s.NoError(err)

	s.Same(a, b)
	s.Equal(1, calls)
	s.True(c.Built())
	s.Equal("firestore_db", c.Name())
}

func (s *UnitTestSuite) TestClientCacheConcurrentFirstUse() {
	var calls atomic.Int32
	c := NewClientCache("supabase_client", func(ctx context.Context) (*fakeClient, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &fakeClient{}, nil
	})

	var wg sync.WaitGroup
	got := make([]*fakeClient, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = c.Get(context.Background())
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), calls.Load())
	for _, h := range got {
		s.Same(got[0], h)
	}
}

func (s *UnitTestSuite) TestClientCacheFailureIsCachedUntilReset() {
	calls := 0
	boom := errors.New("invalid private key")
	c := NewClientCache("firestore_db", func(ctx context.Context) (*fakeClient, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &fakeClient{id: calls}, nil
	})

	h, err := c.Get(context.Background())
	s.Nil(h)
	s.ErrorIs(err, types.ErrClientInit)
	s.ErrorIs(err, boom)
	s.Contains(err.Error(), "invalid private key")

	_, err = c.Get(context.Background())
	s.ErrorIs(err, boom)
	s.Equal(1, calls)

	c.Reset()
	s.False(c.Built())
	h, err = c.Get(context.Background())
	s.NoError(err)
	s.Equal(2, h.id)
	s.Equal(2, c.Builds())
}

type closingClient struct{ closed int }

func (c *closingClient) Close() error {
	c.closed++
	return nil
}

func (s *UnitTestSuite) TestClientCacheCloseReleasesHandle() {
	c := NewClientCache("redis", func(ctx context.Context) (*closingClient, error) {
		return &closingClient{}, nil
	})
	s.NoError(c.Close())

	h, err := c.Get(context.Background())
	s.Require().NoError(err)
	s.NoError(c.Close())
	s.Equal(1, h.closed)
	s.False(c.Built())

	s.NoError(c.Close())
	s.Equal(1, h.closed)

	again, err := c.Get(context.Background())
	s.NoError(err)
	s.NotSame(h, again)
}

func (s *UnitTestSuite) TestClientCacheCloseSkipsFailedBuild() {
	c := NewClientCache("redis", func(ctx context.Context) (*closingClient, error) {
		return &closingClient{}, errors.New("connection refused")
	})
	_, err := c.Get(context.Background())
	s.Error(err)
	s.NoError(c.Close())
	s.False(c.Built())
}
