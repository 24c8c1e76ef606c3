package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/topupbot/core/config"
	coredatabase "github.com/m3rciful/topupbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	called := false
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			called = true
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if called {
		t.Fatal("connect must not run without database config")
	}
	if res.DB != nil {
		t.Fatal("expected nil DB")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunNormalizesDatabaseConfig(t *testing.T) {
	var got coredatabase.Config
	wantErr := errors.New("refused")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Host: "localhost", Name: "topup"},
		LoggerInit: noLogger,
		Connect: func(_ context.Context, cfg coredatabase.Config) (*sqlx.DB, error) {
			got = cfg
			return nil, wantErr
		},
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if got.Port != "5432" || got.MigrationsDir != "migrations" {
		t.Fatalf("database config not normalized: %+v", got)
	}
}

func TestRunRejectsInvalidDatabaseConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{},
		LoggerInit: noLogger,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRunPropagatesLoggerError(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("boom") },
	})
	if err == nil {
		t.Fatal("expected logger error")
	}
}
