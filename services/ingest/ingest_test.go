package ingest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

func TestTerminal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "foreign key violation",
			err:  &pgconn.PgError{Code: "23503"},
			want: true,
		},
		{
			name: "check constraint violation",
			err:  &pgconn.PgError{Code: "23514"},
			want: true,
		},
		{
			name: "wrapped integrity error",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}),
			want: true,
		},
		{
			name: "connection failure",
			err:  &pgconn.PgError{Code: "08006"},
			want: false,
		},
		{
			name: "lock timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("dial tcp: connection refused"),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := terminal(tc.err); got != tc.want {
				t.Fatalf("terminal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestNewIngestorRequiresDependencies(t *testing.T) {
	if _, err := NewIngestor(nil, nil, reading.DefaultEnvelope(), zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing pool")
	}
}
