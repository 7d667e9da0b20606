package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/patrickrooney09/tiba-update-user/internal/logger"
	"github.com/patrickrooney09/tiba-update-user/internal/metrics"
)

const defaultQueryLimit = 50

type Repository struct {
	db    *sqlx.DB
	retry *RetryWorker
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SetRetryQueue attaches the redis retry queue used when a direct insert
// fails. Optional; without it failed appends are only logged.
func (r *Repository) SetRetryQueue(w *RetryWorker) {
	r.retry = w
}

// Append persists an entry best-effort and returns its id, or "" when
// persistence failed. It never returns an error: the operation being
// audited must not be aborted by a logging failure.
func (r *Repository) Append(ctx context.Context, e Entry) string {
	id, err := r.Insert(ctx, e)
	if err != nil {
		logger.Error("audit append failed",
			"error", err,
			"actionType", e.ActionType,
			"monthlyId", e.MonthlyID,
		)
		metrics.RecordAuditWrite("failed")
		if r.retry != nil {
			r.retry.Enqueue(ctx, e)
		}
		return ""
	}
	metrics.RecordAuditWrite("ok")
	return id
}

// Insert is the strict write path used by Append and the retry worker.
// The created_at column defaults to NOW() server-side.
func (r *Repository) Insert(ctx context.Context, e Entry) (string, error) {
	var id string
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO audit_logs (action_type, performed_by, monthly_id, previous_state, new_state, success, error, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		string(e.ActionType),
		e.PerformedBy,
		e.MonthlyID,
		jsonArg(e.PreviousState),
		jsonArg(e.NewState),
		e.Success,
		nullString(e.Error),
		metadataArg(e.Metadata),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Query returns entries matching all supplied filters, newest first.
// Unlike Append this is read-path tooling, so errors surface.
func (r *Repository) Query(ctx context.Context, f Filters) ([]Entry, error) {
	query := `SELECT id, action_type, performed_by, monthly_id,
		COALESCE(previous_state, 'null') AS previous_state,
		COALESCE(new_state, 'null') AS new_state,
		success,
		COALESCE(error, '') AS error,
		COALESCE(metadata, 'null') AS metadata,
		created_at
	FROM audit_logs`

	conds := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.MonthlyID != "" {
		conds = append(conds, "monthly_id = "+arg(f.MonthlyID))
	}
	if f.ActionType != "" {
		conds = append(conds, "action_type = "+arg(string(f.ActionType)))
	}
	if f.PerformedBy != "" {
		conds = append(conds, "performed_by = "+arg(f.PerformedBy))
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at <= "+arg(f.To))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(limit)

	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("audit query failed: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type entryRow struct {
	ID            string         `db:"id"`
	ActionType    string         `db:"action_type"`
	PerformedBy   string         `db:"performed_by"`
	MonthlyID     string         `db:"monthly_id"`
	PreviousState types.JSONText `db:"previous_state"`
	NewState      types.JSONText `db:"new_state"`
	Success       bool           `db:"success"`
	Error         string         `db:"error"`
	Metadata      types.JSONText `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (row entryRow) toEntry() (Entry, error) {
	e := Entry{
		ID:            row.ID,
		ActionType:    ActionType(row.ActionType),
		PerformedBy:   row.PerformedBy,
		MonthlyID:     row.MonthlyID,
		PreviousState: rawOrNil(row.PreviousState),
		NewState:      rawOrNil(row.NewState),
		Success:       row.Success,
		Error:         row.Error,
		Timestamp:     row.CreatedAt,
	}

	if raw := rawOrNil(row.Metadata); raw != nil {
		var m Metadata
		if err := json.Unmarshal(raw, &m); err != nil {
			return Entry{}, fmt.Errorf("audit entry %s: bad metadata: %w", row.ID, err)
		}
		e.Metadata = &m
	}
	return e, nil
}

func rawOrNil(j types.JSONText) json.RawMessage {
	s := strings.TrimSpace(string(j))
	if s == "" || s == "null" {
		return nil
	}
	return json.RawMessage(j)
}

func jsonArg(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func metadataArg(m *Metadata) interface{} {
	if m == nil {
		return nil
	}
	data, _ := json.Marshal(m)
	return string(data)
}
