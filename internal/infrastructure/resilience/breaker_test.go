package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerStaysClosedUnderThreshold(t *testing.T) {
	b := New("test", Settings{Threshold: 3, Cooldown: time.Minute})

	require.Error(t, b.Do(fail))
	require.Error(t, b.Do(fail))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := New("test", Settings{Threshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Do(fail), errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	// Open breaker rejects without calling through
	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New("test", Settings{Threshold: 3, Cooldown: time.Minute})

	require.Error(t, b.Do(fail))
	require.Error(t, b.Do(fail))
	require.NoError(t, b.Do(succeed))
	require.Error(t, b.Do(fail))
	require.Error(t, b.Do(fail))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := New("test", Settings{Threshold: 1, Cooldown: 10 * time.Millisecond})

	require.Error(t, b.Do(fail))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	// Failed probe reopens
	require.ErrorIs(t, b.Do(fail), errBoom)
	assert.Equal(t, StateOpen, b.State())

	// Successful probe closes
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, b.Do(succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerDefaults(t *testing.T) {
	b := New("test", Settings{})
	assert.Equal(t, 5, b.settings.Threshold)
	assert.Equal(t, 30*time.Second, b.settings.Cooldown)
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New("remote", Settings{
		Threshold: 1,
		Cooldown:  time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	require.Error(t, b.Do(fail))
	assert.Equal(t, []string{"closed->open"}, transitions)
}
