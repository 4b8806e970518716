package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gopanel/internal/client/client"
	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/gopanel/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

func setupStorage(t *testing.T) localstore.Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE local_storage (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return localstore.NewSQLiteRepository(db)
}

func storedSession(t *testing.T, r localstore.Repository) []byte {
	t.Helper()
	v, err := r.Get(context.Background(), common.SessionStorageKey)
	require.NoError(t, err)
	return v
}

// ---- fake provider ----

// fakeProvider notifies synchronously, like the real providers.
type fakeProvider struct {
	listeners []func(models.AuthChange)

	signInSession *models.Session
	signInErr     error
	signUpSession *models.Session
	signUpErr     error
	signOutErr    error

	restored *models.Session

	// observed by the listener when it runs
	loadingDuringCall bool
	store             AuthStore
}

func (f *fakeProvider) emit(ch models.AuthChange) {
	for _, l := range f.listeners {
		if l != nil {
			l(ch)
		}
	}
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if f.store != nil {
		f.loadingDuringCall = f.store.Loading()
	}
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.emit(models.AuthChange{Event: models.EventSignedIn, Session: f.signInSession})
	return f.signInSession, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	if f.signUpSession != nil {
		f.emit(models.AuthChange{Event: models.EventSignedIn, Session: f.signUpSession})
	}
	return f.signUpSession, nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.emit(models.AuthChange{Event: models.EventSignedOut})
	return nil
}

func (f *fakeProvider) RefreshSession(ctx context.Context) (*models.Session, error) {
	return nil, client.ErrNoSession
}

func (f *fakeProvider) SetSession(s *models.Session) { f.restored = s }

func (f *fakeProvider) OnAuthStateChange(fn func(models.AuthChange)) func() {
	i := len(f.listeners)
	f.listeners = append(f.listeners, fn)
	return func() { f.listeners[i] = nil }
}

func testSession(email string) *models.Session {
	return &models.Session{
		AccessToken:  "at-" + email,
		RefreshToken: "rt",
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
		User:         &models.User{ID: "u-" + email, Email: email},
	}
}

// ---- tests ----

func TestAuthStore_LoginAppliesNotification(t *testing.T) {
	ctx := context.Background()
	storage := setupStorage(t)
	sess := testSession("a@b.co")
	p := &fakeProvider{signInSession: sess}

	store := NewAuthStore(ctx, p, storage, nil)
	p.store = store
	require.False(t, store.IsAuthenticated())

	store.Login(ctx, "a@b.co", "secret")

	assert.True(t, p.loadingDuringCall)
	assert.False(t, store.Loading())
	assert.Empty(t, store.Err())
	assert.True(t, store.IsAuthenticated())
	assert.Same(t, sess, store.Session())
	assert.Equal(t, "a@b.co", store.CurrentUser().Email)

	var persisted models.Session
	require.NoError(t, json.Unmarshal(storedSession(t, storage), &persisted))
	assert.Equal(t, *sess.User, *persisted.User)
	assert.Equal(t, sess.AccessToken, persisted.AccessToken)
}

func TestAuthStore_LoginFailureStoresMessage(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{signInErr: errors.New("Invalid login credentials")}
	store := NewAuthStore(ctx, p, setupStorage(t), nil)

	store.Login(ctx, "a@b.co", "wrong")

	assert.Equal(t, "Invalid login credentials", store.Err())
	assert.False(t, store.Loading())
	assert.False(t, store.IsAuthenticated())
}

func TestAuthStore_ErrorClearedOnNextOperation(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{signInErr: errors.New("boom")}
	store := NewAuthStore(ctx, p, setupStorage(t), nil)

	store.Login(ctx, "a@b.co", "x")
	require.Equal(t, "boom", store.Err())

	p.signInErr = nil
	p.signInSession = testSession("a@b.co")
	store.Login(ctx, "a@b.co", "x")
	assert.Empty(t, store.Err())
}

func TestAuthStore_SignupPendingConfirmation(t *testing.T) {
	ctx := context.Background()
	storage := setupStorage(t)
	store := NewAuthStore(ctx, &fakeProvider{}, storage, nil)

	store.Signup(ctx, "n@b.co", "secret1")

	assert.Empty(t, store.Err())
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, storedSession(t, storage))
}

func TestAuthStore_LogoutClearsStateAndStorage(t *testing.T) {
	ctx := context.Background()
	storage := setupStorage(t)
	p := &fakeProvider{signInSession: testSession("a@b.co")}
	store := NewAuthStore(ctx, p, storage, nil)

	store.Login(ctx, "a@b.co", "secret")
	require.NotNil(t, storedSession(t, storage))

	store.Logout(ctx)

	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Session())
	assert.Nil(t, storedSession(t, storage))
}

func TestAuthStore_LogoutFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{signInSession: testSession("a@b.co")}
	store := NewAuthStore(ctx, p, setupStorage(t), nil)
	store.Login(ctx, "a@b.co", "secret")

	p.signOutErr = errors.New("network down")
	store.Logout(ctx)

	assert.Equal(t, "network down", store.Err())
	assert.True(t, store.IsAuthenticated())
}

func TestAuthStore_TokenRefreshedPersists(t *testing.T) {
	ctx := context.Background()
	storage := setupStorage(t)
	p := &fakeProvider{}
	store := NewAuthStore(ctx, p, storage, nil)

	refreshed := testSession("a@b.co")
	refreshed.AccessToken = "fresh"
	p.emit(models.AuthChange{Event: models.EventTokenRefreshed, Session: refreshed})

	assert.Equal(t, "fresh", store.Session().AccessToken)
	assert.Contains(t, string(storedSession(t, storage)), `"access_token":"fresh"`)
}

func TestAuthStore_HydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	storage := setupStorage(t)
	sess := testSession("a@b.co")
	data, err := json.Marshal(sess)
	require.NoError(t, err)
	require.NoError(t, storage.Set(ctx, common.SessionStorageKey, data))

	p := &fakeProvider{}
	store := NewAuthStore(ctx, p, storage, nil)

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "a@b.co", store.User().Email)
	require.NotNil(t, p.restored)
	assert.Equal(t, sess.AccessToken, p.restored.AccessToken)
}

func TestAuthStore_MalformedPersistedSessionDiscarded(t *testing.T) {
	ctx := context.Background()
	storage := setupStorage(t)
	require.NoError(t, storage.Set(ctx, common.SessionStorageKey, []byte(`{"access_token":`)))

	p := &fakeProvider{}
	store := NewAuthStore(ctx, p, storage, nil)

	assert.Nil(t, store.User())
	assert.Nil(t, store.Session())
	assert.Empty(t, store.Err())
	assert.Nil(t, p.restored)
	assert.Nil(t, storedSession(t, storage))
}

func TestAuthStore_CloseUnsubscribes(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{}
	store := NewAuthStore(ctx, p, setupStorage(t), nil)
	store.Close()

	p.emit(models.AuthChange{Event: models.EventSignedIn, Session: testSession("a@b.co")})
	assert.False(t, store.IsAuthenticated())
}

func TestAuthStore_WithMemoryBackend(t *testing.T) {
	ctx := context.Background()
	storage := setupStorage(t)
	backend := client.NewMemoryBackend(client.MemoryConfig{
		AdminEmails: []string{"root@example.com"},
		BcryptCost:  bcrypt.MinCost,
	})

	store := NewAuthStore(ctx, backend, storage, nil)
	store.Signup(ctx, "root@example.com", "secret1")
	require.Empty(t, store.Err())
	require.True(t, store.IsAuthenticated())
	assert.True(t, store.User().IsAdmin())

	store.Logout(ctx)
	store.Login(ctx, "root@example.com", "nope")
	assert.Equal(t, "Invalid login credentials", store.Err())
	assert.False(t, store.IsAuthenticated())

	// a second store restores the session persisted by the first
	store.Login(ctx, "root@example.com", "secret1")
	require.True(t, store.IsAuthenticated())
	store.Close()

	other := NewAuthStore(ctx, backend, storage, nil)
	defer other.Close()
	assert.Equal(t, store.Session().AccessToken, other.Session().AccessToken)
}
