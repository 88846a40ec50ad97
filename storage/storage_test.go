package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	e "precisionpulse/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newLocal(t *testing.T) *Local {
	l, err := NewLocal(t.TempDir(), "test-secret", zaptest.NewLogger(t))
	require.NoError(t, err)
	return l
}

func TestUploadAndOpen(t *testing.T) {
	l := newLocal(t)

	obj, err := l.Upload(context.Background(), InjuryFilesBucket, "r1/photo.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), obj.SizeBytes)

	f, err := l.Open(InjuryFilesBucket, "r1/photo.jpg")
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(body))

	_, err = l.Open(InjuryFilesBucket, "r1/missing.jpg")
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestDelete(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	_, err := l.Upload(ctx, InjuryFilesBucket, "r1/photo.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, l.Delete(ctx, InjuryFilesBucket, "r1/photo.jpg"))

	_, err = l.Open(InjuryFilesBucket, "r1/photo.jpg")
	assert.ErrorIs(t, err, e.ErrNotFound)

	assert.NoError(t, l.Delete(ctx, InjuryFilesBucket, "r1/photo.jpg"), "already gone")
	assert.ErrorIs(t, l.Delete(ctx, InjuryFilesBucket, "../secret"), e.ErrInvalidInput)
}

func TestRejectsEscapingPaths(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	for _, p := range []string{"", "../secret", "a/../../b", "/abs", "a//b"} {
		_, err := l.Upload(ctx, InjuryFilesBucket, p, strings.NewReader("x"))
		assert.ErrorIs(t, err, e.ErrInvalidInput, "path %q", p)
	}
	_, err := l.Upload(ctx, "../etc", "x", strings.NewReader("x"))
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestSignedURLRoundTrip(t *testing.T) {
	l := newLocal(t)

	raw, err := l.SignedURL(InjuryFilesBucket, "r1/my photo.jpg", time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/files/injury-files/r1/my photo.jpg", u.Path)

	token := u.Query().Get("token")
	assert.NoError(t, l.Verify(InjuryFilesBucket, "r1/my photo.jpg", token))
	assert.ErrorIs(t, l.Verify(InjuryFilesBucket, "r1/other.jpg", token), e.ErrUnauthorized)
	assert.ErrorIs(t, l.Verify(InjuryFilesBucket, "r1/my photo.jpg", "garbage"), e.ErrUnauthorized)
}

func TestSignedURLExpires(t *testing.T) {
	l := newLocal(t)

	raw, err := l.SignedURL(InjuryFilesBucket, "r1/a.pdf", -time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.ErrorIs(t, l.Verify(InjuryFilesBucket, "r1/a.pdf", u.Query().Get("token")), e.ErrUnauthorized)
}
