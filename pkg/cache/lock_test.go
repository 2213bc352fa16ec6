// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewLocalLocker()

	unlock, ok, err := locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = locker.TryLock(ctx, "other", time.Minute)
	assert.True(t, ok)

	unlock()
	unlock()
	_, ok, _ = locker.TryLock(ctx, "sweep", time.Minute)
	assert.True(t, ok)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	server, client := newMiniRedis(t)
	a := NewRedisLocker(client, "test:")
	b := NewRedisLocker(client, "test:")

	unlock, ok, err := a.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, server.Exists("test:sweep"))

	_, ok, err = b.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	unlock()
	assert.False(t, server.Exists("test:sweep"))

	_, ok, err = b.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	ctx := context.Background()
	server, client := newMiniRedis(t)
	locker := NewRedisLocker(client, "test:")

	staleUnlock, ok, err := locker.TryLock(ctx, "sweep", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	server.FastForward(2 * time.Second)
	_, ok, err = locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	staleUnlock()
	assert.True(t, server.Exists("test:sweep"))
}

func TestChainLocker(t *testing.T) {
	ctx := context.Background()
	server, client := newMiniRedis(t)
	local := NewLocalLocker()
	chain := ChainLocker{local, NewRedisLocker(client, "test:")}

	// another replica holds the redis key
	require.NoError(t, server.Set("test:sweep", "elsewhere"))
	_, ok, err := chain.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// the local lock was handed back
	_, ok, _ = local.TryLock(ctx, "sweep", time.Minute)
	assert.True(t, ok)
}

func TestProvideLocker(t *testing.T) {
	conf := &Redis{}
	conf.SetDefaults()
	locker, cleanup, err := ProvideLocker(conf)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &LocalLocker{}, locker)

	server := miniredis.RunT(t)
	conf.Address = server.Addr()
	locker, cleanup, err = ProvideLocker(conf)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, ChainLocker{}, locker)
}
