package testutil

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/nkiryanov/petalert/internal/db"
)

// Return random free port on 127.0.0.1 address
func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	addr := ln.Addr().(*net.TCPAddr)
	return addr.Port, nil
}

type PostgresContainer struct {
	Pool      *pgxpool.Pool
	DSN       string
	Terminate func()
}

// Start migrated petalert database in docker.
// Fails the test if docker is not available, so callers may rely on a ready pool.
// Terminate must be called when tests stop.
func StartPostgresContainer(t *testing.T) PostgresContainer {
	t.Helper()

	cmd := exec.Command("docker", "info", "--format", "{{.ServerVersion}}")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("postgres tests need a running docker daemon. Err:%s", out)
	}

	port, err := RandomPort()
	require.NoError(t, err, "can't acquire a free port for postgres")

	container, err := postgres.Run(t.Context(),
		"postgres:17-alpine",
		postgres.WithDatabase("petalert-test"),
		postgres.WithUsername("petalert"),
		postgres.WithPassword("pwd"),
		postgres.BasicWaitStrategies(),
		testcontainers.CustomizeRequestOption(func(req *testcontainers.GenericContainerRequest) error {
			req.ExposedPorts = []string{fmt.Sprintf("%d:5432", port)}
			return nil
		}),
	)
	require.NoError(t, err, "postgres container did not start")

	dsn, err := container.ConnectionString(t.Context())
	require.NoError(t, err, "postgres container has no connection string")
	t.Logf("petalert database started, DSN=%v", dsn)

	// Same migrations the server runs on start, calc_distance included
	dbpool, err := db.ConnectAndMigrate(t.Context(), dsn)
	require.NoError(t, err, "can't migrate petalert schema")

	return PostgresContainer{
		Pool: dbpool,
		DSN:  dsn,
		Terminate: func() {
			dbpool.Close()
			testcontainers.CleanupContainer(t, container)
		},
	}
}

type dbtx interface {
	Begin(context.Context) (pgx.Tx, error)
}

// Create db transaction and rollback at test end
// So you may be sure db remains unchanged when test stops
func WithTx(dbtx dbtx, t *testing.T, testFunc func(tx pgx.Tx)) {
	tx, err := dbtx.Begin(t.Context())
	require.NoError(t, err)

	defer func() {
		err := tx.Rollback(t.Context())
		require.NoError(t, err)
	}()

	testFunc(tx)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SeedUser inserts an active user with password "pwd" and mail <username>@example.com.
// It writes plain SQL so repository tests don't depend on the code under test for fixtures.
func SeedUser(t *testing.T, q querier, username string) int64 {
	t.Helper()

	var id int64
	err := q.QueryRow(t.Context(),
		`INSERT INTO users (name, username, password, mail) VALUES ($1, $2, 'pwd', $3) RETURNING id`,
		"Seed "+username, username, username+"@example.com",
	).Scan(&id)
	require.NoError(t, err, "can't seed user %q", username)

	return id
}

// SeedSession inserts a user that logged in at issuedAt with the given token.
// Empty token seeds a logged out user whose expiration is kept.
func SeedSession(t *testing.T, q querier, username string, token string, issuedAt time.Time) int64 {
	t.Helper()

	userID := SeedUser(t, q, username)

	var stored *string
	if token != "" {
		stored = &token
	}

	var id int64
	err := q.QueryRow(t.Context(),
		`INSERT INTO sessions (user_id, token, expiration) VALUES ($1, $2, $3) RETURNING user_id`,
		userID, stored, issuedAt,
	).Scan(&id)
	require.NoError(t, err, "can't seed session for %q", username)

	return id
}
