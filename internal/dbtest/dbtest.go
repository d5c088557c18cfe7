// Package dbtest provides support for database backed tests.
package dbtest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/hamidoujand/roster/internal/migrate"
	"github.com/hamidoujand/roster/internal/sqldb"
	"github.com/hamidoujand/roster/pkg/docker"
	"github.com/jmoiron/sqlx"
)

// StartDB starts a postgres container shared by the tests of a package.
func StartDB() (docker.Container, error) {
	const (
		image = "postgres:17"
		name  = "rostertest"
		port  = "5432"
	)

	dockerArgs := []string{"-e", "POSTGRES_PASSWORD=postgres"}
	appArgs := []string{"-c", "log_statement=all"}

	c, err := docker.StartContainer(image, name, port, dockerArgs, appArgs)
	if err != nil {
		return docker.Container{}, fmt.Errorf("startContainer: %w", err)
	}

	return c, nil
}

// StopDB stops the container started by StartDB, a zero container is ignored.
func StopDB(c docker.Container) {
	if c.Name == "" {
		return
	}
	_ = docker.StopContainer(c.Name)
}

// New creates a fresh migrated database inside the container for a single test,
// the database is dropped when the test finishes. Tests are skipped when the
// container could not be started.
func New(t *testing.T, c docker.Container) *sqlx.DB {
	t.Helper()

	if c.HostPort == "" {
		t.Skip("database container is not running")
	}

	master, err := sqldb.Open(sqldb.Config{
		User:       "postgres",
		Password:   "postgres",
		Host:       c.HostPort,
		Name:       "postgres",
		DisableTLS: true,
	})
	if err != nil {
		t.Fatalf("open master conn: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := sqldb.StatusCheck(ctx, master); err != nil {
		t.Fatalf("statusCheck: %s", err)
	}

	//postgres is picky about database names, lowercase letters only.
	const letters = "abcdefghijklmnopqrstuvwxyz"
	bs := make([]byte, 8)
	for i := range bs {
		bs[i] = letters[rand.IntN(len(letters))]
	}
	dbName := string(bs)

	t.Logf("creating database %s", dbName)
	if _, err := master.ExecContext(ctx, "CREATE DATABASE "+dbName); err != nil {
		t.Fatalf("create database %s: %s", dbName, err)
	}

	db, err := sqldb.Open(sqldb.Config{
		User:       "postgres",
		Password:   "postgres",
		Host:       c.HostPort,
		Name:       dbName,
		DisableTLS: true,
	})
	if err != nil {
		t.Fatalf("open %s: %s", dbName, err)
	}

	if err := migrate.Migrate(db, dbName); err != nil {
		t.Logf("logs for %s:\n%s", c.Name, docker.DumpContainerLogs(c.Name))
		t.Fatalf("migrate %s: %s", dbName, err)
	}

	t.Cleanup(func() {
		_ = db.Close()

		const q = `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1`
		if _, err := master.ExecContext(context.Background(), q, dbName); err != nil {
			t.Errorf("terminating connections to %s: %s", dbName, err)
		}

		t.Logf("dropping database %s", dbName)
		if _, err := master.ExecContext(context.Background(), "DROP DATABASE "+dbName); err != nil {
			t.Errorf("dropping database %s: %s", dbName, err)
		}

		_ = master.Close()
	})

	return db
}
