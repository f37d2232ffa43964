package errors

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"wcpay-checkout/internal/domain/events"
	"wcpay-checkout/internal/infrastructure/dlq"
	"wcpay-checkout/internal/infrastructure/eventbus"

	"github.com/google/uuid"
)

const (
	insertErrorLogQuery = `
		INSERT INTO error_logs (
			error_id, dlq_entry_id, order_id, intent_id, error_type, error_reason,
			original_event, retry_history, first_occurred_at, last_occurred_at, resolved, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (dlq_entry_id) DO NOTHING
	`

	selectUnresolvedErrorsQuery = `
		SELECT
			error_id, dlq_entry_id, order_id, intent_id, error_type, error_reason,
			original_event, retry_history, first_occurred_at, last_occurred_at, resolved, created_at
		FROM error_logs
		WHERE resolved = FALSE
		ORDER BY created_at DESC
		LIMIT $1
	`

	updateErrorResolvedQuery = `
		UPDATE error_logs
		SET resolved = TRUE, resolved_at = NOW()
		WHERE error_id = $1
	`
)

// Error types stored in error_logs.error_type
const (
	TypeMaxRetries       = "MAX_RETRIES"
	TypePublishFailed    = "PUBLISH_FAILED"
	TypeContextCancelled = "CONTEXT_CANCELLED"
	TypePublisherBusy    = "PUBLISHER_BUSY"
	TypeUnknown          = "UNKNOWN"
)

// DBErrors persists DLQ entries to the error_logs table
type DBErrors struct {
	db *sql.DB
}

func NewDBErrors(db *sql.DB) *DBErrors {
	return &DBErrors{db: db}
}

type ErrorLog struct {
	ErrorID         uuid.UUID
	DLQEntryID      string
	OrderID         sql.NullInt64
	IntentID        sql.NullString
	ErrorType       string
	ErrorReason     string
	OriginalEvent   []byte
	RetryHistory    []byte
	FirstOccurredAt time.Time
	LastOccurredAt  time.Time
	Resolved        bool
	CreatedAt       time.Time
}

// PersistDLQEntry stores entry once; a redelivered entry is ignored
func (dbe *DBErrors) PersistDLQEntry(ctx context.Context, entry dlq.Entry) error {
	orderID, intentID := extractOrderAndIntentID(entry.Event)

	originalEvent, err := eventbus.MarshalEvent(entry.Event)
	if err != nil {
		return fmt.Errorf("failed to serialize original event: %w", err)
	}

	history := entry.RetryHistory
	if history == nil {
		history = []string{}
	}
	retryHistory, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to serialize retry history: %w", err)
	}

	_, err = dbe.db.ExecContext(ctx, insertErrorLogQuery,
		uuid.New(),
		entry.ID,
		nullInt64(orderID),
		nullString(intentID),
		classifyErrorType(entry.FailureReason),
		entry.FailureReason,
		string(originalEvent),
		string(retryHistory),
		entry.FirstFailureAt,
		entry.LastAttemptAt,
		false,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to persist DLQ entry to error_logs: %w", err)
	}
	return nil
}

func (dbe *DBErrors) GetUnresolvedErrors(ctx context.Context, limit int) ([]ErrorLog, error) {
	rows, err := dbe.db.QueryContext(ctx, selectUnresolvedErrorsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved errors: %w", err)
	}
	defer rows.Close()

	var logs []ErrorLog
	for rows.Next() {
		var el ErrorLog
		var originalEvent, retryHistory sql.NullString

		if err := rows.Scan(
			&el.ErrorID,
			&el.DLQEntryID,
			&el.OrderID,
			&el.IntentID,
			&el.ErrorType,
			&el.ErrorReason,
			&originalEvent,
			&retryHistory,
			&el.FirstOccurredAt,
			&el.LastOccurredAt,
			&el.Resolved,
			&el.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan error log: %w", err)
		}

		if originalEvent.Valid {
			el.OriginalEvent = []byte(originalEvent.String)
		}
		if retryHistory.Valid {
			el.RetryHistory = []byte(retryHistory.String)
		}
		logs = append(logs, el)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read error logs: %w", err)
	}
	return logs, nil
}

func (dbe *DBErrors) MarkAsResolved(ctx context.Context, errorID uuid.UUID) error {
	if _, err := dbe.db.ExecContext(ctx, updateErrorResolvedQuery, errorID); err != nil {
		return fmt.Errorf("failed to mark error as resolved: %w", err)
	}
	return nil
}

func extractOrderAndIntentID(event events.Event) (int64, string) {
	if data, ok := event.Data().(events.PaymentOutcomeData); ok {
		return data.OrderID, data.IntentID
	}

	orderID, _ := strconv.ParseInt(event.AggregateID(), 10, 64)
	return orderID, ""
}

func classifyErrorType(failureReason string) string {
	switch failureReason {
	case dlq.ReasonMaxRetriesExceeded:
		return TypeMaxRetries
	case dlq.ReasonPublishFailed:
		return TypePublishFailed
	case dlq.ReasonContextCancelled:
		return TypeContextCancelled
	case dlq.ReasonPublisherBusy:
		return TypePublisherBusy
	default:
		return TypeUnknown
	}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v > 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
