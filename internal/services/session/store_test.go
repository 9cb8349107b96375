package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRevocation(t *testing.T) {
	clk := &clock{now: t0}
	store := NewMemoryStore(clk.Now)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "s1", time.Hour))
	require.NoError(t, store.Revoke(ctx, "s2", 0))

	revoked, err := store.IsRevoked(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, revoked, "non-positive ttl is a no-op")

	clk.Advance(time.Hour)
	revoked, err = store.IsRevoked(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, store.revoked, "expired entries are swept")
}

func TestNewRevocationStoreWithoutRedis(t *testing.T) {
	_, ok := NewRevocationStore(nil).(*MemoryStore)
	assert.True(t, ok)
}

func TestCookieJarClearExpiresStaleChunks(t *testing.T) {
	jar := cookieJar{name: "sess", secure: true}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, name := range []string{"sess.0", "sess.1", "other"} {
		req.AddCookie(&http.Cookie{Name: name, Value: "v"})
	}

	rec := httptest.NewRecorder()
	jar.write(rec, req, "short", time.Hour)

	got := map[string]int{}
	for _, c := range rec.Result().Cookies() {
		got[c.Name] = c.MaxAge
	}
	assert.Equal(t, map[string]int{"sess": 3600, "sess.0": -1, "sess.1": -1}, got)
}

func TestCookieJarReadChunks(t *testing.T) {
	jar := cookieJar{name: "sess"}
	value := strings.Repeat("a", maxCookieChunk) + strings.Repeat("b", 10)

	rec := httptest.NewRecorder()
	jar.write(rec, httptest.NewRequest(http.MethodGet, "/", nil), value, time.Hour)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
	}

	got, ok := jar.read(requestWithCookies(cookies))
	require.True(t, ok)
	assert.Equal(t, value, got)
}
