package client

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// MemoryConfig configures a MemoryBackend.
type MemoryConfig struct {
	// AdminEmails get app_metadata.is_admin on sign-up.
	AdminEmails []string
	// Secret signs issued access tokens. A random one is used when empty.
	Secret   []byte
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

// MemoryBackend is an in-process stand-in for the hosted backend. Sign-ups
// are confirmed immediately and tables are created on first use.
type MemoryBackend struct {
	mu       sync.Mutex
	users    map[string]*memoryUser
	refresh  map[string]string
	tables   map[string][]models.Record
	session  *models.Session
	admins   map[string]struct{}
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time

	listeners notifier
}

type memoryUser struct {
	user models.User
	hash []byte
}

func NewMemoryBackend(cfg MemoryConfig) *MemoryBackend {
	m := &MemoryBackend{
		users:   make(map[string]*memoryUser),
		refresh: make(map[string]string),
		tables:  make(map[string][]models.Record),
		admins:  make(map[string]struct{}, len(cfg.AdminEmails)),
		secret:  cfg.Secret,
		ttl:     cfg.TokenTTL,
		cost:    cfg.BcryptCost,
		now:     cfg.Now,
	}
	for _, e := range cfg.AdminEmails {
		m.admins[normalizeEmail(e)] = struct{}{}
	}
	if len(m.secret) == 0 {
		m.secret = common.GenerateRandByteArray(32)
	}
	if m.ttl == 0 {
		m.ttl = time.Hour
	}
	if m.cost == 0 {
		m.cost = bcrypt.DefaultCost
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *MemoryBackend) Close() error { return nil }

// CurrentSession returns the active session, if any.
func (m *MemoryBackend) CurrentSession() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *MemoryBackend) SetSession(s *models.Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

func (m *MemoryBackend) OnAuthStateChange(fn func(models.AuthChange)) func() {
	return m.listeners.subscribe(fn)
}

// issueSession signs a token for u and records its refresh token.
// The caller holds m.mu.
func (m *MemoryBackend) issueSession(u models.User) (*models.Session, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:       u.Email,
		Role:        "authenticated",
		AppMetadata: u.AppMetadata,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}
	refresh, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	m.refresh[refresh] = normalizeEmail(u.Email)

	user := u
	s := &models.Session{
		AccessToken:  token,
		TokenType:    "bearer",
		ExpiresIn:    int64(m.ttl / time.Second),
		ExpiresAt:    exp.Unix(),
		RefreshToken: refresh,
		User:         &user,
	}
	m.session = s
	return s, nil
}

func (m *MemoryBackend) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	key := normalizeEmail(email)
	if !strings.Contains(key, "@") {
		return nil, &APIError{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Unable to validate email address: invalid format"}
	}
	if len(password) < minPasswordLength {
		return nil, &APIError{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: "Password should be at least 6 characters."}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, exists := m.users[key]; exists {
		m.mu.Unlock()
		return nil, &APIError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}
	u := models.User{ID: uuid.NewString(), Email: key, Role: "authenticated", CreatedAt: m.now().UTC()}
	if _, ok := m.admins[key]; ok {
		u.AppMetadata = map[string]any{"is_admin": true}
	}
	m.users[key] = &memoryUser{user: u, hash: hash}
	s, err := m.issueSession(u)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.listeners.notify(models.AuthChange{Event: models.EventSignedIn, Session: s})
	return s, nil
}

func (m *MemoryBackend) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	invalid := &APIError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}

	m.mu.Lock()
	mu, ok := m.users[normalizeEmail(email)]
	m.mu.Unlock()
	if !ok {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword(mu.hash, []byte(password)); err != nil {
		return nil, invalid
	}

	m.mu.Lock()
	s, err := m.issueSession(mu.user)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.listeners.notify(models.AuthChange{Event: models.EventSignedIn, Session: s})
	return s, nil
}

func (m *MemoryBackend) SignOut(ctx context.Context) error {
	m.mu.Lock()
	if m.session != nil {
		delete(m.refresh, m.session.RefreshToken)
	}
	m.session = nil
	m.mu.Unlock()

	m.listeners.notify(models.AuthChange{Event: models.EventSignedOut})
	return nil
}

// RefreshSession rotates the refresh token. A token this backend never
// issued, such as one restored from an earlier run, signs the session out.
func (m *MemoryBackend) RefreshSession(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	if m.session == nil || m.session.RefreshToken == "" {
		m.mu.Unlock()
		return nil, ErrNoSession
	}
	email, ok := m.refresh[m.session.RefreshToken]
	if !ok {
		// An unknown refresh token ends the session, as GoTrue's rejection does.
		m.session = nil
		m.mu.Unlock()
		m.listeners.notify(models.AuthChange{Event: models.EventSignedOut})
		return nil, &APIError{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "Invalid Refresh Token: Refresh Token Not Found"}
	}
	delete(m.refresh, m.session.RefreshToken)
	s, err := m.issueSession(m.users[email].user)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.listeners.notify(models.AuthChange{Event: models.EventTokenRefreshed, Session: s})
	return s, nil
}

func cloneRecords(rows []models.Record) []models.Record {
	out := make([]models.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

func (m *MemoryBackend) Select(ctx context.Context, table string) ([]models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRecords(m.tables[table]), nil
}

func (m *MemoryBackend) Insert(ctx context.Context, table string, rec models.Record) (models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	row := rec.Clone()
	if row == nil {
		row = models.Record{}
	}
	if models.IsZeroID(row.ID()) {
		row[models.IDField] = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tables[table] {
		if models.SameID(existing.ID(), row.ID()) {
			return nil, &APIError{Status: http.StatusConflict, Code: "23505", Message: "duplicate key value violates unique constraint \"" + table + "_pkey\""}
		}
	}
	m.tables[table] = append(m.tables[table], row)
	return row.Clone(), nil
}

func (m *MemoryBackend) Update(ctx context.Context, table string, id any, patch models.Record) (models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	i := slices.IndexFunc(rows, func(r models.Record) bool { return models.SameID(r.ID(), id) })
	if i < 0 {
		return nil, errSingleRow(0)
	}
	for k, v := range patch {
		if k == models.IDField {
			continue
		}
		rows[i][k] = v
	}
	return rows[i].Clone(), nil
}

func (m *MemoryBackend) Delete(ctx context.Context, table string, id any) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = slices.DeleteFunc(m.tables[table], func(r models.Record) bool {
		return models.SameID(r.ID(), id)
	})
	return nil
}
