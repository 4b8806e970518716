package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gopanel/internal/client/attachments"
	"github.com/dmitrijs2005/gopanel/internal/client/client"
	"github.com/dmitrijs2005/gopanel/internal/client/config"
	"github.com/dmitrijs2005/gopanel/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/gopanel/internal/client/router"
	"github.com/dmitrijs2005/gopanel/internal/client/services"
	"github.com/dmitrijs2005/gopanel/internal/logging"
)

// refreshMargin is added to the check interval when deciding whether a
// session is close enough to expiry to refresh.
const refreshMargin = time.Minute

type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	backend *backend

	auth        services.AuthStore
	router      *router.Router
	collections map[string]services.RecordCollection
	files       *attachments.Storage

	reader *bufio.Reader
	out    io.Writer
}

// backend bundles the auth provider and table client chosen by config.
type backend struct {
	auth   client.AuthProvider
	tables client.TableClient
	// refresh runs until ctx is done; nil when the backend needs none.
	refresh func(ctx context.Context, interval time.Duration)
	// restore checks a session hydrated from local storage; nil when the
	// backend validates sessions on its own.
	restore func(ctx context.Context) error
	close   func() error
}

// localAuth signs operators in against mem. Sessions from an earlier run
// are unknown to a fresh mem, so restore signs them out.
func localAuth(mem *client.MemoryBackend, tables client.TableClient, closeFn func() error) *backend {
	return &backend{
		auth:   mem,
		tables: tables,
		restore: func(ctx context.Context) error {
			_, err := mem.RefreshSession(ctx)
			return err
		},
		close: closeFn,
	}
}

func newBackend(ctx context.Context, cfg *config.Config, log logging.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		sc, err := client.NewSupabaseClient(client.SupabaseConfig{
			URL:     cfg.SupabaseURL,
			AnonKey: cfg.SupabaseKey,
			Logger:  log,
		})
		if err != nil {
			return nil, err
		}
		return &backend{
			auth:   sc,
			tables: sc,
			refresh: func(ctx context.Context, interval time.Duration) {
				sc.StartAutoRefresh(ctx, interval, interval+refreshMargin)
			},
			close: sc.Close,
		}, nil

	case config.BackendPostgres:
		pt, err := client.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		// Direct database access has no GoTrue; operators sign in locally.
		mem := client.NewMemoryBackend(client.MemoryConfig{AdminEmails: cfg.AdminEmails})
		return localAuth(mem, pt, pt.Close), nil

	case config.BackendMemory:
		mem := client.NewMemoryBackend(client.MemoryConfig{AdminEmails: cfg.AdminEmails})
		return localAuth(mem, mem, mem.Close), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.LocalStoragePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	be, err := newBackend(ctx, c, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var files *attachments.Storage
	if c.S3Bucket != "" {
		files, err = attachments.New(ctx, attachments.Config{
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
		})
		if err != nil {
			log.Warn(ctx, "attachments disabled", "error", err)
		}
	}

	storage := localstore.NewSQLiteRepository(db)
	auth := services.NewAuthStore(ctx, be.auth, storage, log)

	a, err := newApp(c, log, auth, be, files, bufio.NewReader(os.Stdin), os.Stdout)
	if err != nil {
		auth.Close()
		_ = be.close()
		_ = db.Close()
		return nil, err
	}
	a.db = db
	return a, nil
}

// newApp wires the router and views around already constructed parts.
func newApp(c *config.Config, log logging.Logger, auth services.AuthStore, be *backend,
	files *attachments.Storage, reader *bufio.Reader, out io.Writer) (*App, error) {

	r, err := router.New(router.DefaultRoutes(), log)
	if err != nil {
		return nil, err
	}
	r.Use(router.AuthGuards(r, auth)...)

	a := &App{
		config:      c,
		log:         log,
		backend:     be,
		auth:        auth,
		router:      r,
		collections: make(map[string]services.RecordCollection),
		files:       files,
		reader:      reader,
		out:         out,
	}
	a.registerViews()
	return a, nil
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsAuthenticated()
}

// collection returns the record collection for table, creating it once.
func (a *App) collection(table string) (services.RecordCollection, error) {
	if err := client.ValidateTableName(table); err != nil {
		return nil, err
	}
	if c, ok := a.collections[table]; ok {
		return c, nil
	}
	c := services.NewRecordCollection(a.backend.tables, table, a.log)
	a.collections[table] = c
	return c, nil
}

func (a *App) getStatus() string {
	s := ""
	if u := a.auth.CurrentUser(); u != nil {
		s = u.Email + " "
	}
	if m := a.router.Current(); m != nil {
		s += m.Location.Path
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run shows the dashboard, or the login page when signed out, and then
// serves commands until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to gopanel (type 'help' for commands)")

	if a.backend.refresh != nil {
		rctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.backend.refresh(rctx, a.config.RefreshInterval)
	}

	if a.backend.restore != nil && a.auth.Session() != nil {
		if err := a.backend.restore(ctx); err != nil {
			a.log.Info(ctx, "saved session is no longer valid", "error", err)
		}
	}

	if err := a.Goto(ctx, "/dashboard"); err != nil {
		return err
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// Close releases the store subscription, the backend and the local database.
func (a *App) Close() error {
	a.auth.Close()
	var errs []error
	if a.backend != nil && a.backend.close != nil {
		errs = append(errs, a.backend.close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}
