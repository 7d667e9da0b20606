package audit

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuditMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

const insertQuery = `INSERT INTO audit_logs (action_type, performed_by, monthly_id, previous_state, new_state, success, error, metadata) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

func TestAppend_Success(t *testing.T) {
	repo, mock, close := setupAuditMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(insertQuery)).
		WithArgs(
			"WALLET_UPDATE",
			"admin@wac.org",
			"M123",
			`{"WalletBalance":500}`,
			`{"WalletBalance":800}`,
			true,
			nil,
			`{"updateMethod":"DISCOUNT","amountChange":300,"reason":"front desk discount"}`,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("0b54f1de-1111-4222-8333-444455556666"))

	id := repo.Append(context.Background(), Entry{
		ActionType:    ActionWalletUpdate,
		PerformedBy:   "admin@wac.org",
		MonthlyID:     "M123",
		PreviousState: json.RawMessage(`{"WalletBalance":500}`),
		NewState:      json.RawMessage(`{"WalletBalance":800}`),
		Success:       true,
		Metadata: &Metadata{
			UpdateMethod: MethodDiscount,
			AmountChange: 300,
			Reason:       "front desk discount",
		},
	})

	assert.Equal(t, "0b54f1de-1111-4222-8333-444455556666", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_FailureIsSwallowed(t *testing.T) {
	repo, mock, close := setupAuditMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(insertQuery)).
		WillReturnError(errors.New("connection refused"))

	// No panic, no error: the caller gets the sentinel empty id.
	id := repo.Append(context.Background(), Entry{
		ActionType:  ActionUserUpdate,
		PerformedBy: "admin@wac.org",
		MonthlyID:   "M123",
		Success:     true,
	})

	assert.Equal(t, "", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_FailurePushesToRetryQueue(t *testing.T) {
	repo, mock, close := setupAuditMock(t)
	defer close()

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.CustomMatch(func(expected, actual []interface{}) error {
		return nil // payload carries a timestamp; match on command and key only
	}).ExpectLPush(retryQueueKey, "ignored").SetVal(1)
	redisMock.ExpectLLen(retryQueueKey).SetVal(1)

	repo.SetRetryQueue(NewRetryWorker(redisClient, repo))

	mock.ExpectQuery(regexp.QuoteMeta(insertQuery)).
		WillReturnError(errors.New("connection refused"))

	id := repo.Append(context.Background(), Entry{
		ActionType:  ActionWalletUpdate,
		PerformedBy: "admin@wac.org",
		MonthlyID:   "M123",
		Success:     false,
		Error:       "provider rejected update",
	})

	assert.Equal(t, "", id)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func auditRows(t *testing.T, entries ...Entry) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{
		"id", "action_type", "performed_by", "monthly_id",
		"previous_state", "new_state", "success", "error", "metadata", "created_at",
	})
	for _, e := range entries {
		prev, next := "null", "null"
		if e.PreviousState != nil {
			prev = string(e.PreviousState)
		}
		if e.NewState != nil {
			next = string(e.NewState)
		}
		meta := "null"
		if e.Metadata != nil {
			data, err := json.Marshal(e.Metadata)
			require.NoError(t, err)
			meta = string(data)
		}
		rows.AddRow(e.ID, string(e.ActionType), e.PerformedBy, e.MonthlyID,
			prev, next, e.Success, e.Error, meta, e.Timestamp)
	}
	return rows
}

func TestQuery_AllFiltersAndOrder(t *testing.T) {
	repo, mock, close := setupAuditMock(t)
	defer close()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	newer := Entry{
		ID: "id-2", ActionType: ActionWalletUpdate, PerformedBy: "admin@wac.org",
		MonthlyID: "M123", Success: true,
		NewState:  json.RawMessage(`{"WalletBalance":800}`),
		Metadata:  &Metadata{UpdateMethod: MethodDiscount, AmountChange: 300},
		Timestamp: time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC),
	}
	older := Entry{
		ID: "id-1", ActionType: ActionWalletUpdate, PerformedBy: "admin@wac.org",
		MonthlyID: "M123", Success: false, Error: "provider rejected update",
		Timestamp: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery(`SELECT .+ FROM audit_logs WHERE monthly_id = \$1 AND action_type = \$2 AND performed_by = \$3 AND created_at >= \$4 AND created_at <= \$5 ORDER BY created_at DESC LIMIT \$6`).
		WithArgs("M123", "WALLET_UPDATE", "admin@wac.org", from, to, 10).
		WillReturnRows(auditRows(t, newer, older))

	entries, err := repo.Query(context.Background(), Filters{
		MonthlyID:   "M123",
		ActionType:  ActionWalletUpdate,
		PerformedBy: "admin@wac.org",
		From:        from,
		To:          to,
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))

	assert.Equal(t, "id-2", entries[0].ID)
	require.NotNil(t, entries[0].Metadata)
	assert.Equal(t, MethodDiscount, entries[0].Metadata.UpdateMethod)
	assert.Equal(t, int64(300), entries[0].Metadata.AmountChange)
	assert.Nil(t, entries[0].PreviousState)

	assert.Equal(t, "id-1", entries[1].ID)
	assert.False(t, entries[1].Success)
	assert.Equal(t, "provider rejected update", entries[1].Error)
	assert.Nil(t, entries[1].Metadata)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_DefaultLimit(t *testing.T) {
	repo, mock, close := setupAuditMock(t)
	defer close()

	mock.ExpectQuery(`SELECT .+ FROM audit_logs ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(defaultQueryLimit).
		WillReturnRows(auditRows(t))

	entries, err := repo.Query(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_ErrorSurfaces(t *testing.T) {
	repo, mock, close := setupAuditMock(t)
	defer close()

	mock.ExpectQuery(`SELECT .+ FROM audit_logs`).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Query(context.Background(), Filters{MonthlyID: "M123"})
	require.Error(t, err)
}
