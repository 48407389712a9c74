package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/activity"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/storage"
	"github.com/example/ec-storefront/internal/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, initial map[string]string) (*Session, *mocks.MockStore, *activity.Recorder) {
	t.Helper()
	store := mocks.NewMockStore(initial)
	recorder := activity.NewRecorder()
	s := Load(context.Background(), store, recorder, zap.NewNop())
	return s, store, recorder
}

// ============================================
// Load Tests
// ============================================

func TestLoad_Empty(t *testing.T) {
	s, _, _ := newTestSession(t, nil)

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "", s.Token())
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestLoad_RestoresIdentity(t *testing.T) {
	s, _, _ := newTestSession(t, map[string]string{
		storage.KeyToken:    "opaque-token",
		storage.KeyUsername: "alice",
		storage.KeyIsAdmin:  "true",
		storage.KeyTheme:    ThemeDark,
	})

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, Identity{Token: "opaque-token", Username: "alice", IsAdmin: true}, s.Identity())
	assert.Equal(t, ThemeDark, s.Theme())
}

func TestLoad_AdminFlagMustBeExactlyTrue(t *testing.T) {
	s, _, _ := newTestSession(t, map[string]string{
		storage.KeyToken:   "t",
		storage.KeyIsAdmin: "yes",
	})

	assert.False(t, s.IsAdmin())
}

func TestLoad_IgnoresUnknownTheme(t *testing.T) {
	s, _, _ := newTestSession(t, map[string]string{storage.KeyTheme: "solarized"})
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestLoad_DropsExpiredToken(t *testing.T) {
	expired, _, err := auth.NewJWTService("k", -time.Minute).GenerateAccessToken("alice", true)
	require.NoError(t, err)

	s, store, _ := newTestSession(t, map[string]string{
		storage.KeyToken:    expired,
		storage.KeyUsername: "alice",
		storage.KeyIsAdmin:  "true",
		storage.KeyCart:     "[]",
	})

	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())
	_, ok := store.Value(storage.KeyToken)
	assert.False(t, ok)
	_, ok = store.Value(storage.KeyCart)
	assert.True(t, ok, "cart is not part of the session")
}

func TestLoad_KeepsLiveToken(t *testing.T) {
	live, expiresAt, err := auth.NewJWTService("k", time.Hour).GenerateAccessToken("alice", false)
	require.NoError(t, err)

	s, _, _ := newTestSession(t, map[string]string{storage.KeyToken: live})

	assert.True(t, s.IsAuthenticated())
	got, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, expiresAt.Unix(), got.Unix())
}

func TestLoad_StoreError(t *testing.T) {
	store := mocks.NewMockStore(map[string]string{storage.KeyToken: "t"})
	store.GetErr = errors.New("unavailable")

	s := Load(context.Background(), store, nil, zap.NewNop())

	assert.False(t, s.IsAuthenticated())
}

// ============================================
// Login / Clear Tests
// ============================================

func TestLogin_PersistsAllFieldsTogether(t *testing.T) {
	s, store, recorder := newTestSession(t, nil)

	err := s.Login(context.Background(), "t1", "alice", true)
	require.NoError(t, err)

	require.Len(t, store.SetCalls, 1)
	assert.Equal(t, map[string]string{
		storage.KeyToken:    "t1",
		storage.KeyUsername: "alice",
		storage.KeyIsAdmin:  "true",
	}, store.SetCalls[0])
	assert.Equal(t, "t1", s.Token())
	assert.True(t, s.IsAdmin())
	assert.Equal(t, []string{EventUserLoggedIn}, recorder.EventTypes())
}

func TestLogin_ReplacesPreviousIdentity(t *testing.T) {
	s, store, _ := newTestSession(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "t1", "alice", true))
	require.NoError(t, s.Login(ctx, "t2", "bob", false))

	assert.Equal(t, Identity{Token: "t2", Username: "bob"}, s.Identity())
	v, _ := store.Value(storage.KeyIsAdmin)
	assert.Equal(t, "false", v)
}

func TestLogin_EmptyToken(t *testing.T) {
	s, store, _ := newTestSession(t, nil)

	err := s.Login(context.Background(), "", "alice", false)

	assert.ErrorIs(t, err, ErrEmptyToken)
	assert.Empty(t, store.SetCalls)
	assert.False(t, s.IsAuthenticated())
}

func TestLogin_StoreFailureLeavesSessionUnchanged(t *testing.T) {
	s, store, recorder := newTestSession(t, nil)
	store.SetErr = errors.New("disk full")

	err := s.Login(context.Background(), "t1", "alice", false)

	assert.Error(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, recorder.Events())
}

func TestClear_RemovesIdentityAndExtraKeys(t *testing.T) {
	s, store, recorder := newTestSession(t, map[string]string{
		storage.KeyToken:    "t1",
		storage.KeyUsername: "alice",
		storage.KeyIsAdmin:  "true",
		storage.KeyCart:     `[{"id":1,"quantity":1}]`,
		storage.KeyTheme:    ThemeDark,
	})

	err := s.Clear(context.Background(), "logout", storage.KeyCart)
	require.NoError(t, err)

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "", s.Username())
	assert.False(t, s.IsAdmin())
	require.Len(t, store.RemoveCalls, 1)
	assert.ElementsMatch(t,
		[]string{storage.KeyToken, storage.KeyUsername, storage.KeyIsAdmin, storage.KeyCart},
		store.RemoveCalls[0])
	theme, _ := store.Value(storage.KeyTheme)
	assert.Equal(t, ThemeDark, theme)
	assert.Equal(t, []string{EventUserLoggedOut}, recorder.EventTypes())
}

func TestClear_StoreFailureStillSignsOut(t *testing.T) {
	s, store, _ := newTestSession(t, map[string]string{storage.KeyToken: "t1"})
	store.RemoveErr = errors.New("unavailable")

	err := s.Clear(context.Background(), "logout")

	assert.Error(t, err)
	assert.False(t, s.IsAuthenticated())
}

// ============================================
// Invalidate Tests
// ============================================

func TestInvalidate_CurrentToken(t *testing.T) {
	s, _, _ := newTestSession(t, map[string]string{storage.KeyToken: "t1", storage.KeyUsername: "alice"})

	cleared, err := s.Invalidate(context.Background(), "t1")

	require.NoError(t, err)
	assert.True(t, cleared)
	assert.False(t, s.IsAuthenticated())
}

func TestInvalidate_StaleTokenIsNoop(t *testing.T) {
	s, store, _ := newTestSession(t, nil)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, "new-token", "bob", false))

	cleared, err := s.Invalidate(ctx, "old-token")

	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Equal(t, "new-token", s.Token())
	assert.Empty(t, store.RemoveCalls)
}

func TestInvalidate_StoreFailureStillTearsDown(t *testing.T) {
	s, store, _ := newTestSession(t, map[string]string{storage.KeyToken: "t1", storage.KeyUsername: "alice"})
	store.RemoveErr = errors.New("unavailable")

	cleared, err := s.Invalidate(context.Background(), "t1")

	assert.Error(t, err)
	assert.True(t, cleared)
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
}

func TestInvalidate_EmptyToken(t *testing.T) {
	s, _, _ := newTestSession(t, nil)

	cleared, err := s.Invalidate(context.Background(), "")

	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestInvalidate_ConcurrentTearsDownOnce(t *testing.T) {
	s, store, recorder := newTestSession(t, map[string]string{storage.KeyToken: "t1"})

	var wg sync.WaitGroup
	results := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cleared, err := s.Invalidate(context.Background(), "t1")
			assert.NoError(t, err)
			results <- cleared
		}()
	}
	wg.Wait()
	close(results)

	count := 0
	for cleared := range results {
		if cleared {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, store.RemoveCalls, 1)
	assert.Equal(t, []string{EventUserLoggedOut}, recorder.EventTypes())
}

// ============================================
// Theme Tests
// ============================================

func TestSetTheme(t *testing.T) {
	s, store, _ := newTestSession(t, nil)
	ctx := context.Background()

	require.NoError(t, s.SetTheme(ctx, ThemeDark))
	v, _ := store.Value(storage.KeyTheme)
	assert.Equal(t, ThemeDark, v)

	assert.ErrorIs(t, s.SetTheme(ctx, "blue"), ErrInvalidTheme)
	assert.Equal(t, ThemeDark, s.Theme())
}

func TestToggleTheme(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	ctx := context.Background()

	theme, err := s.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	theme, err = s.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)
}
