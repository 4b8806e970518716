package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/gopanel/internal/client/client"
	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/gopanel/internal/common"
	"github.com/dmitrijs2005/gopanel/internal/logging"
)

// AuthStore exposes the authenticated user and session.
//
// Login, Signup and Logout never touch user or session themselves. The
// provider's notification, delivered before the provider call returns, is
// what updates them. Failures end up in Err.
type AuthStore interface {
	User() *models.User
	Session() *models.Session
	Loading() bool
	// Err returns the last failure message, or "" after a clean operation.
	Err() string
	IsAuthenticated() bool
	CurrentUser() *models.User

	Login(ctx context.Context, email, password string)
	Signup(ctx context.Context, email, password string)
	Logout(ctx context.Context)

	// Close stops listening to the provider.
	Close()
}

type authStore struct {
	provider client.AuthProvider
	storage  localstore.Repository
	log      logging.Logger

	mu      sync.RWMutex
	user    *models.User
	session *models.Session
	loading bool
	err     string

	unsubscribe func()
}

// NewAuthStore hydrates the store from local storage, hands any restored
// session to the provider and subscribes to its notifications.
func NewAuthStore(ctx context.Context, provider client.AuthProvider, storage localstore.Repository, log logging.Logger) AuthStore {
	if log == nil {
		log = logging.Nop()
	}
	s := &authStore{provider: provider, storage: storage, log: log}

	s.hydrate(ctx)
	if sess := s.Session(); sess != nil {
		provider.SetSession(sess)
	}
	s.unsubscribe = provider.OnAuthStateChange(s.handleChange)
	return s
}

// hydrate loads the persisted session. Malformed data is removed.
func (s *authStore) hydrate(ctx context.Context) {
	raw, err := s.storage.Get(ctx, common.SessionStorageKey)
	if err != nil {
		s.log.Error(ctx, "failed to read persisted session", "error", err)
		return
	}
	if len(raw) == 0 {
		return
	}

	var sess *models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.log.Error(ctx, "error parsing persisted session", "error", err)
		if err := s.storage.Delete(ctx, common.SessionStorageKey); err != nil {
			s.log.Error(ctx, "failed to remove persisted session", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.session = sess
	if sess != nil {
		s.user = sess.User
	}
	s.mu.Unlock()
}

func (s *authStore) handleChange(change models.AuthChange) {
	ctx := context.Background()
	s.log.Info(ctx, "auth event", "event", string(change.Event))

	s.mu.Lock()
	s.session = change.Session
	s.user = nil
	if change.Session != nil {
		s.user = change.Session.User
	}
	s.loading = false
	s.mu.Unlock()

	switch change.Event {
	case models.EventSignedIn, models.EventTokenRefreshed:
		data, err := json.Marshal(change.Session)
		if err != nil {
			s.log.Error(ctx, "failed to encode session", "error", err)
			return
		}
		if err := s.storage.Set(ctx, common.SessionStorageKey, data); err != nil {
			s.log.Error(ctx, "failed to persist session", "error", err)
		}
	case models.EventSignedOut:
		if err := s.storage.Delete(ctx, common.SessionStorageKey); err != nil {
			s.log.Error(ctx, "failed to remove persisted session", "error", err)
		}
	}
}

func (s *authStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

func (s *authStore) finish(ctx context.Context, op string, err error) {
	s.mu.Lock()
	if err != nil {
		s.err = err.Error()
	}
	s.loading = false
	s.mu.Unlock()

	if err != nil {
		s.log.Warn(ctx, op+" failed", "error", err)
	}
}

func (s *authStore) Login(ctx context.Context, email, password string) {
	s.begin()
	_, err := s.provider.SignInWithPassword(ctx, email, password)
	s.finish(ctx, "login", err)
}

func (s *authStore) Signup(ctx context.Context, email, password string) {
	s.begin()
	_, err := s.provider.SignUp(ctx, email, password)
	s.finish(ctx, "signup", err)
}

func (s *authStore) Logout(ctx context.Context) {
	s.begin()
	err := s.provider.SignOut(ctx)
	s.finish(ctx, "logout", err)
}

func (s *authStore) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *authStore) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *authStore) CurrentUser() *models.User {
	return s.User()
}

func (s *authStore) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *authStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *authStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *authStore) IsAuthenticated() bool {
	return s.User() != nil
}
