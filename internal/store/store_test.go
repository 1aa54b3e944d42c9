package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/agcreativegroup/News-Research-Tool/internal/store"
)

func startPostgres(t *testing.T) *store.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgUser := "research"
	pgPassword := "research"
	pgDB := "research"

	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase(pgDB),
		tcPostgres.WithUsername(pgUser),
		tcPostgres.WithPassword(pgPassword),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgHost, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	pgPort, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, pgHost, pgPort.Port(), pgDB)
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreUsers(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	if err := st.CreateUser(ctx, "analyst@example.com", "hash-1"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	err := st.CreateUser(ctx, "analyst@example.com", "hash-2")
	if err == nil {
		t.Fatal("expected duplicate email to fail")
	}
	pqErr, ok := err.(*pq.Error)
	if !ok || string(pqErr.Code) != "23505" {
		t.Fatalf("expected unique violation, got %v", err)
	}

	id, hash, err := st.GetUserByEmail(ctx, "analyst@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if id == "" || hash != "hash-1" {
		t.Fatalf("unexpected user row: id=%q hash=%q", id, hash)
	}

	if _, _, err := st.GetUserByEmail(ctx, "nobody@example.com"); err == nil {
		t.Fatal("expected lookup of unknown email to fail")
	}
}
