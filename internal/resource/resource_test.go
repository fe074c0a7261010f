package resource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardAdmitsWhenCeilingDisabled(t *testing.T) {
	g := &Guard{ceiling: 0}
	require.True(t, g.Admit())
}

func TestGuardRejectsOverCeiling(t *testing.T) {
	g := &Guard{ceiling: 100}
	g.rss.Store(200)
	require.False(t, g.Admit())

	g.rss.Store(50)
	require.True(t, g.Admit())
}

func TestLimiterAllowsWithinBurst(t *testing.T) {
	l := NewLimiter(1, 3)
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow())
}

func TestLimiterUnlimitedWhenRateZero(t *testing.T) {
	l := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow())
	}
}
