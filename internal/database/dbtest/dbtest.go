// Package dbtest gives integration tests a migrated MySQL database.
//
// The server is the one named by MYSQL_TEST_DSN, for example
// "root:root@tcp(127.0.0.1:3306)/turf_test?parseTime=true&loc=UTC", or a
// throwaway mysql:8.0 container when MYSQL_TESTCONTAINERS=1.  Without
// either the calling test is skipped.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/turf-booking/internal/database"
)

// Tables lists every table in delete order.
var Tables = []string{"bookings", "sessions", "turfs", "users"}

// DSN returns the test database DSN or skips t.
func DSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("MYSQL_TEST_DSN"); dsn != "" {
		return dsn
	}
	if os.Getenv("MYSQL_TESTCONTAINERS") == "1" {
		return startContainer(t)
	}
	t.Skip("MYSQL_TEST_DSN not set and MYSQL_TESTCONTAINERS != 1")
	return ""
}

// Open connects to the test database, applies the schema and empties
// every table.  The pool is closed when t ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenDSN(DSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	Truncate(t, db)
	return db
}

// Truncate deletes every row of every table.
func Truncate(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, table := range Tables {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.0",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "root",
				"MYSQL_DATABASE":      "turf_test",
			},
			// the init server logs ready once with networking off
			WaitingFor: wait.ForAll(
				wait.ForLog("ready for connections").WithOccurrence(2),
				wait.ForListeningPort("3306/tcp"),
			).WithDeadline(3 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("root:root@tcp(%s:%s)/turf_test?parseTime=true&loc=UTC", host, port.Port())
}
