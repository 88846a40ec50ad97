package mirror

import (
	"context"
	"encoding/json"
	"testing"

	e "precisionpulse/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestMirror(t *testing.T) (*miniredis.Miniredis, *Redis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, New(client, "pp", zap.NewNop())
}

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestSaveLoad(t *testing.T) {
	mr, m := setupTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "containers:DC5", []row{{"1", "MSKU1"}}))
	assert.True(t, mr.Exists("pp:containers:DC5"))

	var got []row
	ok, err := m.Load(ctx, "containers:DC5", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []row{{"1", "MSKU1"}}, got)

	ok, err = m.Load(ctx, "containers:DC11", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadCorruptEntry(t *testing.T) {
	mr, m := setupTestMirror(t)
	require.NoError(t, mr.Set("pp:chat:DC5", "{not json"))

	var got []row
	_, err := m.Load(context.Background(), "chat:DC5", &got)
	assert.Error(t, err)
}

func TestExportOnlyNamespace(t *testing.T) {
	mr, m := setupTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "containers:all", []row{{"1", "A"}}))
	require.NoError(t, m.Save(ctx, "chat:DC5:1st", []row{{"2", "hi"}}))
	require.NoError(t, mr.Set("other:key", `"x"`))

	snap, err := m.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.False(t, snap.CreatedAt.IsZero())
	assert.Len(t, snap.Data, 2)
	assert.JSONEq(t, `[{"id":"1","name":"A"}]`, string(snap.Data["containers:all"]))
}

func TestImportOverwritesMatchingKeysOnly(t *testing.T) {
	_, m := setupTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "containers:all", []row{{"1", "old"}}))
	require.NoError(t, m.Save(ctx, "chat:all", []row{{"2", "keep"}}))

	n, err := m.Import(ctx, &Snapshot{
		Version: SnapshotVersion,
		Data: map[string]json.RawMessage{
			"containers:all": json.RawMessage(`[{"id":"1","name":"new"}]`),
			"workforce:all":  json.RawMessage(`[]`),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var got []row
	_, err = m.Load(ctx, "containers:all", &got)
	require.NoError(t, err)
	assert.Equal(t, "new", got[0].Name)

	_, err = m.Load(ctx, "chat:all", &got)
	require.NoError(t, err)
	assert.Equal(t, "keep", got[0].Name)
}

func TestImportValidation(t *testing.T) {
	_, m := setupTestMirror(t)
	ctx := context.Background()

	_, err := m.Import(ctx, &Snapshot{Version: 99, Data: map[string]json.RawMessage{}})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = m.Import(ctx, &Snapshot{Version: SnapshotVersion})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = m.Import(ctx, &Snapshot{Version: SnapshotVersion, Data: map[string]json.RawMessage{"k": json.RawMessage(`{`)}})
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestDisabledMirror(t *testing.T) {
	m := New(nil, "pp", zap.NewNop())
	ctx := context.Background()

	assert.False(t, m.Enabled())
	assert.NoError(t, m.Save(ctx, "k", 1))

	var v int
	ok, err := m.Load(ctx, "k", &v)
	assert.NoError(t, err)
	assert.False(t, ok)

	snap, err := m.Export(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Data)
}

func TestNewClientUnreachable(t *testing.T) {
	assert.Nil(t, NewClient("", "", 0))
	assert.Nil(t, NewClient("127.0.0.1:1", "", 0))
}
