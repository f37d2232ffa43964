package orderstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wcpay-checkout/internal/domain/order"
)

const (
	selectOrderQuery = `
		SELECT order_id, order_key, status, total, currency, customer_id, cart_hash,
		       intent_id, intent_status, transaction_id, payment_method, paid_at, created_at, updated_at
		FROM orders
		WHERE order_id = $1
	`

	selectOrderNotesQuery = `
		SELECT note
		FROM order_notes
		WHERE order_id = $1
		ORDER BY note_id ASC
	`

	upsertOrderQuery = `
		INSERT INTO orders (
			order_id, order_key, status, total, currency, customer_id, cart_hash,
			intent_id, intent_status, transaction_id, payment_method, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (order_id) DO UPDATE SET
			status = EXCLUDED.status,
			customer_id = EXCLUDED.customer_id,
			intent_id = EXCLUDED.intent_id,
			intent_status = EXCLUDED.intent_status,
			transaction_id = EXCLUDED.transaction_id,
			payment_method = EXCLUDED.payment_method,
			paid_at = EXCLUDED.paid_at,
			updated_at = EXCLUDED.updated_at
	`

	countOrderNotesQuery = `SELECT COUNT(*) FROM order_notes WHERE order_id = $1`

	insertOrderNoteQuery = `INSERT INTO order_notes (order_id, note, created_at) VALUES ($1, $2, $3)`

	selectPaidByCartHashQuery = `
		SELECT order_id
		FROM orders
		WHERE customer_id = $1
		  AND cart_hash = $2
		  AND order_id <> $3
		  AND status IN ('processing', 'completed')
		  AND paid_at >= $4
		ORDER BY paid_at DESC
		LIMIT 1
	`
)

// PostgresStore persists orders and their notes. Notes are append-only: Save inserts the notes
// that are not stored yet.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a database/sql handle on the pgx driver
func OpenPostgres(connString string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*order.Order, error) {
	var (
		o                                                   order.Order
		status                                              string
		customerID, cartHash, intentID, intentStatus, txnID sql.NullString
		paymentMethod                                       sql.NullString
		paidAt                                              sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, selectOrderQuery, id).Scan(
		&o.ID, &o.OrderKey, &status, &o.Total, &o.Currency, &customerID, &cartHash,
		&intentID, &intentStatus, &txnID, &paymentMethod, &paidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	o.Status = order.Status(status)
	o.CustomerID = customerID.String
	o.CartHash = cartHash.String
	o.IntentID = intentID.String
	o.IntentStatus = intentStatus.String
	o.TransactionID = txnID.String
	o.PaymentMethod = paymentMethod.String
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}

	notes, err := s.loadNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Notes = notes

	return &o, nil
}

func (s *PostgresStore) Save(ctx context.Context, o *order.Order) error {
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var paidAt interface{}
	if o.PaidAt != nil {
		paidAt = *o.PaidAt
	}

	_, err = tx.ExecContext(ctx, upsertOrderQuery,
		o.ID,
		o.OrderKey,
		string(o.Status),
		o.Total,
		o.Currency,
		nullString(o.CustomerID),
		nullString(o.CartHash),
		nullString(o.IntentID),
		nullString(o.IntentStatus),
		nullString(o.TransactionID),
		nullString(o.PaymentMethod),
		paidAt,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx, countOrderNotesQuery, o.ID).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count order notes: %w", err)
	}

	for i := stored; i < len(o.Notes); i++ {
		if _, err := tx.ExecContext(ctx, insertOrderNoteQuery, o.ID, o.Notes[i], now); err != nil {
			return fmt.Errorf("failed to save order note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPaidByCartHash(ctx context.Context, customerID, cartHash string, since time.Time, excludeID int64) (*order.Order, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, selectPaidByCartHashQuery, customerID, cartHash, excludeID, since).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query paid orders: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *PostgresStore) loadNotes(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectOrderNotesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order notes: %w", err)
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var note string
		if err := rows.Scan(&note); err != nil {
			return nil, fmt.Errorf("failed to scan order note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order notes: %w", err)
	}
	return notes, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
