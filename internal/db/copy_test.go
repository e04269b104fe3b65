package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	t.Parallel()

	n, err := CopyFrom(context.TODO(), nil, "founder_records", []string{"id", "title"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"founder_records"}, []string{"id", "title"}).WillReturnResult(3)

	rows := [][]any{{"a", "x"}, {"b", "y"}, {"c", "z"}}
	n, err := CopyFrom(context.Background(), mock, "founder_records", []string{"id", "title"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"founder_records"}, []string{"id"}).WillReturnError(fmt.Errorf("permission denied"))

	_, err = CopyFrom(context.Background(), mock, "founder_records", []string{"id"}, [][]any{{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO founder_records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_RowWidthMismatch(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = CopyFrom(context.Background(), mock, "founder_records", []string{"id", "title"}, [][]any{{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0 has 1 values, want 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_NoColumns(t *testing.T) {
	t.Parallel()

	_, err := CopyFrom(context.Background(), nil, "founder_records", nil, [][]any{{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}
