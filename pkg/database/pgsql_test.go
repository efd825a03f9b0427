package database

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPgxPool_RejectsBadURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewPgxPool(context.Background(), "", PoolOptions{}, logger)
	assert.EqualError(t, err, "database URL cannot be empty")

	_, err = NewPgxPool(context.Background(), "postgres://%zz", PoolOptions{}, logger)
	assert.ErrorContains(t, err, "failed to parse database config")
}

func TestClosePgxPool_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ClosePgxPool(nil, slog.Default()) })
}
