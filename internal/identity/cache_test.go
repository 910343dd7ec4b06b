package identity

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	getCalls int
	user     *User
}

func (p *countingProvider) GetUser(ctx context.Context, id string) (*User, error) {
	p.getCalls++
	if p.user == nil {
		return nil, ErrUserNotFound
	}
	return p.user, nil
}

func (p *countingProvider) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return nil, ErrUserNotFound
}

func (p *countingProvider) SearchUsers(ctx context.Context, query string, limit int) ([]User, error) {
	return []User{}, nil
}

func TestCachedProviderHitsCacheOnSecondGet(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := &countingProvider{user: &User{ID: "user_1", Email: "a@example.com", Color: ColorFor("user_1")}}
	cp := NewCachedProvider(inner, client, time.Minute)

	ctx := context.Background()
	u1, err := cp.GetUser(ctx, "user_1")
	require.NoError(t, err)
	u2, err := cp.GetUser(ctx, "user_1")
	require.NoError(t, err)

	assert.Equal(t, u1.Email, u2.Email)
	assert.Equal(t, 1, inner.getCalls)
}

func TestCachedProviderExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := &countingProvider{user: &User{ID: "user_1"}}
	cp := NewCachedProvider(inner, client, time.Second)

	ctx := context.Background()
	_, err = cp.GetUser(ctx, "user_1")
	require.NoError(t, err)

	m.FastForward(2 * time.Second)

	_, err = cp.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.getCalls)
}

func TestCachedProviderMissNotCached(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := &countingProvider{} // every lookup misses
	cp := NewCachedProvider(inner, client, time.Minute)

	ctx := context.Background()
	_, err = cp.GetUser(ctx, "user_x")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = cp.GetUser(ctx, "user_x")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 2, inner.getCalls)
}

func TestCachedProviderCorruptEntryFallsThrough(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := &countingProvider{user: &User{ID: "user_1"}}
	cp := NewCachedProvider(inner, client, time.Minute)

	require.NoError(t, m.Set("user:user_1", "{corrupt"))

	u, err := cp.GetUser(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", u.ID)
	assert.Equal(t, 1, inner.getCalls)
}
