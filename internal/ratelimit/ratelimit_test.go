package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	k := New(1, 2)
	defer k.Stop()

	assert.True(t, k.Allow("alice@example.com"))
	assert.True(t, k.Allow("alice@example.com"))
	assert.False(t, k.Allow("alice@example.com"))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	k := New(1, 1)
	defer k.Stop()

	assert.True(t, k.Allow("alice@example.com"))
	assert.False(t, k.Allow("alice@example.com"))
	assert.True(t, k.Allow("bob@example.com"))
}

func TestWait_RespectsContext(t *testing.T) {
	k := New(0.001, 1)
	defer k.Stop()

	require.True(t, k.Allow("alice@example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := k.Wait(ctx, "alice@example.com")
	assert.Error(t, err)
}

func TestStop_Idempotent(t *testing.T) {
	k := New(1, 1)
	k.Stop()
	k.Stop()
}
