// Package migration applies the embedded SQL schema with golang-migrate.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Status describes the schema of one database
type Status struct {
	// Version is the last applied migration, 0 when none
	Version uint
	Dirty   bool
	// Latest is the highest version in the source
	Latest  uint
	Pending int
}

// Current reports whether every migration in the source is applied cleanly
func (s Status) Current() bool {
	return !s.Dirty && s.Pending == 0
}

// Migrator runs NNNNNN_name.{up,down}.sql files against Postgres. A Migrator
// owns the *sql.DB it is given and closes it in Close.
type Migrator struct {
	m      *migrate.Migrate
	src    source.Driver
	logger *zap.Logger
}

// New reads migrations from the root of source, normally migrations.FS
func New(db *sql.DB, source fs.FS, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return &Migrator{m: m, src: src, logger: logger}, nil
}

// Up applies every pending migration. Cancelling ctx stops after the
// migration in flight.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", m.m.Up)
}

// Down rolls every migration back
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "down", m.m.Down)
}

// Steps applies n migrations, rolling back when n is negative
func (m *Migrator) Steps(ctx context.Context, n int) error {
	if n == 0 {
		return errors.New("steps must not be zero")
	}
	return m.run(ctx, fmt.Sprintf("steps(%d)", n), func() error { return m.m.Steps(n) })
}

func (m *Migrator) run(ctx context.Context, op string, fn func() error) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case m.m.GracefulStop <- true:
			default:
			}
		case <-stop:
		}
	}()

	m.logger.Info("Running migrations", zap.String("op", op))
	err := fn()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info("Schema already at target", zap.String("op", op))
		return nil
	case err != nil:
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("migrate %s interrupted: %w", op, err)
	}

	st, err := m.Status()
	if err != nil {
		return err
	}
	m.logger.Info("Migrations applied",
		zap.String("op", op),
		zap.Uint("version", st.Version),
		zap.Int("pending", st.Pending),
	)
	return nil
}

// Version returns the applied version, 0 if none
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return v, dirty, nil
}

// Status compares the applied version with the source
func (m *Migrator) Status() (Status, error) {
	v, dirty, err := m.Version()
	if err != nil {
		return Status{}, err
	}
	st := Status{Version: v, Dirty: dirty}

	next, err := m.src.First()
	for err == nil {
		st.Latest = next
		if next > v {
			st.Pending++
		}
		next, err = m.src.Next(next)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return Status{}, fmt.Errorf("read migration source: %w", err)
	}
	return st, nil
}

// Force records version as applied and clean without running anything.
// It clears the dirty flag after a failed migration was repaired by hand.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
