package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestKVRoundTrip(t *testing.T) {
	kv, err := NewKV(t.TempDir())
	require.NoError(t, err)

	in := payload{Name: "gate-screens", Count: 7}
	require.NoError(t, kv.Set("shell/windows", in))

	var out payload
	found, err := kv.Get("shell/windows", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestKVMissingKey(t *testing.T) {
	kv, err := NewKV(t.TempDir())
	require.NoError(t, err)

	var out payload
	found, err := kv.Get("absent", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKVOverwrite(t *testing.T) {
	kv, err := NewKV(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, kv.Set("k", payload{Count: 1}))
	require.NoError(t, kv.Set("k", payload{Count: 2}))

	var out payload
	_, err = kv.Get("k", &out)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
}

func TestKVRemoveIdempotent(t *testing.T) {
	kv, err := NewKV(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, kv.Set("k", payload{}))
	require.NoError(t, kv.Remove("k"))
	require.NoError(t, kv.Remove("k"))

	var out payload
	found, err := kv.Get("k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKVKeysAndEscaping(t *testing.T) {
	kv, err := NewKV(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, kv.Set("session-1", payload{}))
	require.NoError(t, kv.Set("session-2", payload{}))
	require.NoError(t, kv.Set("domain/state", payload{}))

	keys, err := kv.Keys("session-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"session-1", "session-2"}, keys)

	keys, err = kv.Keys("")
	require.NoError(t, err)
	assert.Contains(t, keys, "domain/state")
}

func TestKVSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	kv, err := NewKV(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Set("persistent", payload{Name: "occ"}))

	kv2, err := NewKV(dir)
	require.NoError(t, err)
	var out payload
	found, err := kv2.Get("persistent", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "occ", out.Name)
}
