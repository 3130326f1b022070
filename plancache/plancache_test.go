package plancache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetOrCompute(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	defer c.Close()

	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return "finalized-plan", nil
	}

	v, err := c.GetOrCompute("plan-id-1", compute)
	require.NoError(t, err)
	require.Equal(t, "finalized-plan", v)

	// ristretto's Set is processed asynchronously; give it a moment to land.
	// If the value is in the cache it must be the computed one; either way
	// compute ran exactly once.
	time.Sleep(10 * time.Millisecond)

	v2, ok := c.Get("plan-id-1")
	if ok {
		require.Equal(t, "finalized-plan", v2)
	}
	require.Equal(t, 1, calls)
}

func TestDel(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", "v", 1)
	time.Sleep(10 * time.Millisecond)
	c.Del("k")
	time.Sleep(10 * time.Millisecond)

	_, ok := c.Get("k")
	require.False(t, ok)
}
