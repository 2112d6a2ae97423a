package models

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"golang.org/x/sync/singleflight"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cms-panel/internal/config"
	"cms-panel/internal/logging"
)

const initTimeout = 30 * time.Second

// InitHook runs once after the schema is migrated, inside the initialisation
// shared by all concurrent callers. Seeding belongs here.
type InitHook func(ctx context.Context, db *gorm.DB) error

// Gateway owns the database connection. The connection is opened lazily by
// EnsureInitialized; concurrent first callers share one initialisation, and a
// failed initialisation is retried by the next caller.
type Gateway struct {
	cfg    *config.Config
	logger *slog.Logger

	hooksMu sync.Mutex
	hooks   []InitHook

	group singleflight.Group
	db    atomic.Pointer[gorm.DB]
	runs  atomic.Int64
}

// NewGateway creates a gateway. No connection is opened until first use.
func NewGateway(cfg *config.Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{cfg: cfg, logger: logger}
}

// OnInit registers a hook executed after migration. Hooks registered after
// initialisation completed are not run.
func (g *Gateway) OnInit(hook InitHook) {
	g.hooksMu.Lock()
	defer g.hooksMu.Unlock()
	g.hooks = append(g.hooks, hook)
}

// EnsureInitialized opens the connection, migrates the schema and runs the
// init hooks exactly once per successful initialisation.
func (g *Gateway) EnsureInitialized(ctx context.Context) error {
	if g.db.Load() != nil {
		return nil
	}

	_, err, _ := g.group.Do("init", func() (interface{}, error) {
		if g.db.Load() != nil {
			return nil, nil
		}

		// Detached from the first caller so its cancellation does not fail the
		// requests waiting on the same initialisation.
		initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), initTimeout)
		defer cancel()

		db, err := g.open(initCtx)
		if err != nil {
			return nil, err
		}
		g.runs.Add(1)
		g.db.Store(db)
		return nil, nil
	})
	return err
}

// Initialized reports whether a connection is available.
func (g *Gateway) Initialized() bool {
	return g.db.Load() != nil
}

// Initializations returns how many times the schema setup ran to completion.
func (g *Gateway) Initializations() int64 {
	return g.runs.Load()
}

// DB returns a session bound to ctx, initialising the gateway if needed.
func (g *Gateway) DB(ctx context.Context) (*gorm.DB, error) {
	if err := g.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	return g.db.Load().WithContext(ctx), nil
}

// Transaction runs fn in a database transaction and classifies its error.
func (g *Gateway) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := g.DB(ctx)
	if err != nil {
		return err
	}
	return Classify(db.Transaction(fn))
}

// Ping checks the connection without initialising it.
func (g *Gateway) Ping(ctx context.Context) error {
	db := g.db.Load()
	if db == nil {
		return ErrConnection
	}
	sqlDB, err := db.DB()
	if err != nil {
		return Classify(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &dbError{kind: ErrConnection, err: err}
	}
	return nil
}

// Close closes the underlying connection pool.
func (g *Gateway) Close() error {
	db := g.db.Swap(nil)
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *Gateway) open(ctx context.Context) (*gorm.DB, error) {
	dialector, err := g.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.NewGormLogger(g.logger, g.cfg.Database.LogQueries),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, &dbError{kind: ErrConnection, err: fmt.Errorf("failed to connect to database: %w", err)}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if g.cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(g.cfg.Database.MaxOpenConns)
	}
	if g.cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(g.cfg.Database.MaxIdleConns)
	}
	if g.cfg.Database.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(g.cfg.Database.ConnMaxLifetime)
	}

	fail := func(err error) (*gorm.DB, error) {
		_ = sqlDB.Close()
		return nil, err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fail(&dbError{kind: ErrConnection, err: err})
	}

	session := db.WithContext(ctx)
	if err := session.AutoMigrate(AllModels()...); err != nil {
		return fail(fmt.Errorf("failed to migrate database: %w", Classify(err)))
	}

	g.hooksMu.Lock()
	hooks := append([]InitHook(nil), g.hooks...)
	g.hooksMu.Unlock()

	for _, hook := range hooks {
		if err := hook(ctx, session); err != nil {
			return fail(err)
		}
	}

	g.logger.Info("database initialized", "type", g.cfg.Database.Type)
	return db, nil
}

func (g *Gateway) dialector() (gorm.Dialector, error) {
	switch g.cfg.Database.Type {
	case "sqlite":
		return sqlite.Open(g.cfg.Database.SQLite.Path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"), nil
	case "mysql":
		my := g.cfg.Database.MySQL
		dsn := mysqldriver.NewConfig()
		dsn.User = my.Username
		dsn.Passwd = my.Password
		dsn.Net = "tcp"
		dsn.Addr = fmt.Sprintf("%s:%d", my.Host, my.Port)
		dsn.DBName = my.Database
		dsn.ParseTime = true
		dsn.Loc = time.UTC
		if my.Charset != "" {
			dsn.Params = map[string]string{"charset": my.Charset}
		}
		return mysql.Open(dsn.FormatDSN()), nil
	case "postgres":
		return postgres.Open(g.cfg.Database.Postgres.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", g.cfg.Database.Type)
	}
}

// AllModels lists the tables managed by AutoMigrate, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&BlogPost{},
		&Page{},
		&MediaAsset{},
		&Client{},
		&Setting{},
		&AuditLog{},
	}
}
