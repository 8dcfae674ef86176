package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "pgx unique violation", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "lib/pq unique violation", err: &pq.Error{Code: "23505"}, want: true},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, want: true},
		{name: "wrapped pgx", err: fmt.Errorf("insert submission: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "wrapped lib/pq", err: fmt.Errorf("insert submission: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "wrapped gorm", err: fmt.Errorf("insert submission: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "pgx check violation", err: &pgconn.PgError{Code: "23514"}, want: false},
		{name: "lib/pq foreign key violation", err: &pq.Error{Code: "23503"}, want: false},
		{name: "plain error", err: errors.New("connection reset by peer"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
