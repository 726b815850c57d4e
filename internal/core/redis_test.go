// AngelaMos | 2026
// redis_test.go

package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewTokenBlacklist(client), mr
}

func TestTokenBlacklist_RevokeAndCheck(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Now().Add(10*time.Minute)))

	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(11 * time.Minute)

	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry should expire with the token")
}

func TestTokenBlacklist_IgnoresExpiredTokens(t *testing.T) {
	bl, mr := newTestBlacklist(t)

	require.NoError(t, bl.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(blacklistPrefix+"old"))
}

func TestTokenBlacklist_EmptyJTI(t *testing.T) {
	bl, _ := newTestBlacklist(t)

	revoked, err := bl.IsRevoked(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, revoked)
}
