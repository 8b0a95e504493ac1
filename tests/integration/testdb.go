//go:build integration

// Package integration runs the ledger against a real PostgreSQL started with
// testcontainers, using the embedded SQL migrations.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/migration"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testDBName     = "ledger_test"
	testDBUser     = "postgres"
	testDBPassword = "ledger123"
)

// TestDB is a migrated database in its own container
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Config    config.DatabaseConfig
	Container testcontainers.Container
	t         *testing.T
}

// NewTestDB starts PostgreSQL, connects through persistence.NewDatabase and
// applies every migration
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            testDBUser,
		Password:        testDBPassword,
		DBName:          testDBName,
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 5,
		LockTimeout:     2 * time.Second,
	}
	database, err := persistence.NewDatabase(&cfg, nil)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	tdb := &TestDB{DB: database.DB, SqlDB: sqlDB, Config: cfg, Container: container, t: t}
	tdb.Migrate()
	return tdb
}

// Migrate applies all pending migrations on a dedicated connection
func (tdb *TestDB) Migrate() {
	tdb.t.Helper()
	m := tdb.migrator()
	defer m.Close()
	require.NoError(tdb.t, m.Up(context.Background()), "Failed to run migrations")
}

func (tdb *TestDB) migrator() *migration.Migrator {
	tdb.t.Helper()
	// migrate closes the *sql.DB it is given, so it gets its own pool
	db, err := sql.Open("postgres", fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		tdb.Config.User, tdb.Config.Password, tdb.Config.Host, tdb.Config.Port, tdb.Config.DBName))
	require.NoError(tdb.t, err)
	m, err := migration.New(db, migrations.FS, zap.NewNop())
	require.NoError(tdb.t, err, "Failed to create migrator")
	return m
}

// CleanTables truncates every ledger table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error)
	}
}
