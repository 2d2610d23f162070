//go:build integration

package kv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"caseflow/internal/cachens/store/kv"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *kv.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = kv.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) key(name string) string {
	// Unique per test so suites can share the container.
	return name + ":" + uuid.NewString()
}

func (s *RedisStoreSuite) TestGetAbsent() {
	_, err := s.store.Get(context.Background(), s.key("absent"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestSetGetRoundTrip() {
	ctx := context.Background()
	key := s.key("roundtrip")

	s.Require().NoError(s.store.Set(ctx, key, "42", 0))
	val, err := s.store.Get(ctx, key)
	s.NoError(err)
	s.Equal("42", val)
}

func (s *RedisStoreSuite) TestAddWinsOnce() {
	ctx := context.Background()
	key := s.key("add")

	won, err := s.store.Add(ctx, key, "1", 0)
	s.NoError(err)
	s.True(won)

	won, err = s.store.Add(ctx, key, "999", 0)
	s.NoError(err)
	s.False(won)

	val, err := s.store.Get(ctx, key)
	s.NoError(err)
	s.Equal("1", val)
}

func (s *RedisStoreSuite) TestIncrFailsOnAbsentKey() {
	ctx := context.Background()
	key := s.key("incr-absent")

	_, err := s.store.Incr(ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// The failed increment must not have created the key.
	_, err = s.store.Get(ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestIncrExistingKey() {
	ctx := context.Background()
	key := s.key("incr")

	s.Require().NoError(s.store.Set(ctx, key, "5", 0))
	val, err := s.store.Incr(ctx, key)
	s.NoError(err)
	s.Equal(int64(6), val)
}

func (s *RedisStoreSuite) TestIncrConcurrent() {
	ctx := context.Background()
	key := s.key("incr-concurrent")
	const goroutines = 50

	s.Require().NoError(s.store.Set(ctx, key, "0", 0))

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			_, err := s.store.Incr(ctx, key)
			s.NoError(err)
		}()
	}
	wg.Wait()

	val, err := s.store.Get(ctx, key)
	s.NoError(err)
	s.Equal("50", val)
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	ctx := context.Background()
	key := s.key("ttl")

	s.Require().NoError(s.store.Set(ctx, key, "1", 500*time.Millisecond))

	val, err := s.store.Get(ctx, key)
	s.NoError(err)
	s.Equal("1", val)

	time.Sleep(700 * time.Millisecond)

	_, err = s.store.Get(ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteMany() {
	ctx := context.Background()
	k1, k2 := s.key("del"), s.key("del")

	s.Require().NoError(s.store.Set(ctx, k1, "1", 0))
	s.Require().NoError(s.store.Set(ctx, k2, "2", 0))

	s.Require().NoError(s.store.DeleteMany(ctx, []string{k1, k2}))

	_, err := s.store.Get(ctx, k1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Get(ctx, k2)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
