package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Candy2803/mpesa/internal/domain"

	_ "modernc.org/sqlite"
)

// timeLayout is RFC 3339 with fixed-width nanoseconds so stored timestamps
// sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert collides with the sparse
	// unique indexes on checkout_request_id or mpesa_receipt_number.
	ErrDuplicate = errors.New("duplicate transaction")
)

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA foreign_keys = ON;")
	db.Exec("PRAGMA journal_mode = WAL;")
	db.Exec("PRAGMA busy_timeout = 5000;")

	r := &SQLiteRepo{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS transactions(
			id TEXT PRIMARY KEY,
			owner_id TEXT,
			phone_number TEXT NOT NULL,
			amount TEXT NOT NULL,
			reference TEXT NOT NULL,
			description TEXT NOT NULL,
			merchant_request_id TEXT,
			checkout_request_id TEXT UNIQUE,
			response_code TEXT,
			response_description TEXT,
			customer_message TEXT,
			mpesa_receipt_number TEXT UNIQUE,
			completed_at TEXT,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tx_merchant_request ON transactions(merchant_request_id);
		CREATE INDEX IF NOT EXISTS idx_tx_owner ON transactions(owner_id);
	`
	_, err := r.db.Exec(schema)
	return err
}

const txColumns = `
	id,
	owner_id,
	phone_number,
	amount,
	reference,
	description,
	merchant_request_id,
	checkout_request_id,
	response_code,
	response_description,
	customer_message,
	mpesa_receipt_number,
	completed_at,
	status,
	created_at,
	updated_at
`

func (r *SQLiteRepo) Insert(ctx context.Context, t *domain.Transaction) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	q := `INSERT INTO transactions(` + txColumns + `) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := r.db.ExecContext(
		ctx, q,
		t.ID,
		nullable(t.OwnerID),
		t.PhoneNumber,
		t.Amount.String(),
		t.Reference,
		t.Description,
		nullable(t.MerchantRequestID),
		nullable(t.CheckoutRequestID),
		nullable(t.ResponseCode),
		nullable(t.ResponseDescription),
		nullable(t.CustomerMessage),
		nullable(t.MpesaReceiptNumber),
		nullTime(t.CompletedAt),
		string(t.Status),
		now.Format(timeLayout),
		now.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}

	return nil
}

// Update persists the mutable fields of an existing record by ID.
func (r *SQLiteRepo) Update(ctx context.Context, t *domain.Transaction) error {
	now := time.Now().UTC()
	t.UpdatedAt = now

	q := `
		UPDATE transactions SET
			owner_id = ?,
			phone_number = ?,
			amount = ?,
			reference = ?,
			description = ?,
			merchant_request_id = ?,
			checkout_request_id = ?,
			response_code = ?,
			response_description = ?,
			customer_message = ?,
			mpesa_receipt_number = ?,
			completed_at = ?,
			status = ?,
			updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(
		ctx, q,
		nullable(t.OwnerID),
		t.PhoneNumber,
		t.Amount.String(),
		t.Reference,
		t.Description,
		nullable(t.MerchantRequestID),
		nullable(t.CheckoutRequestID),
		nullable(t.ResponseCode),
		nullable(t.ResponseDescription),
		nullable(t.CustomerMessage),
		nullable(t.MpesaReceiptNumber),
		nullTime(t.CompletedAt),
		string(t.Status),
		now.Format(timeLayout),
		t.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}

	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *SQLiteRepo) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions WHERE id = ?`
	return r.findOne(ctx, q, id)
}

func (r *SQLiteRepo) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions WHERE checkout_request_id = ?`
	return r.findOne(ctx, q, checkoutRequestID)
}

func (r *SQLiteRepo) FindByMerchantRequestID(ctx context.Context, merchantRequestID string) (*domain.Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions WHERE merchant_request_id = ?`
	return r.findOne(ctx, q, merchantRequestID)
}

func (r *SQLiteRepo) findOne(ctx context.Context, q string, arg any) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, q, arg)
	t, err := scanTx(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *SQLiteRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}

	return res, rows.Err()
}

func scanTx(scanner interface {
	Scan(dest ...any) error
}) (*domain.Transaction, error) {
	var t domain.Transaction
	var ownerID, merchantReq, checkoutReq, respCode, respDesc, custMsg, receipt, completedStr *string
	var amountStr, status, createdStr, updatedStr string

	if err := scanner.Scan(
		&t.ID,
		&ownerID,
		&t.PhoneNumber,
		&amountStr,
		&t.Reference,
		&t.Description,
		&merchantReq,
		&checkoutReq,
		&respCode,
		&respDesc,
		&custMsg,
		&receipt,
		&completedStr,
		&status,
		&createdStr,
		&updatedStr,
	); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	t.Amount = amount
	t.Status = domain.TxStatus(status)

	t.OwnerID = deref(ownerID)
	t.MerchantRequestID = deref(merchantReq)
	t.CheckoutRequestID = deref(checkoutReq)
	t.ResponseCode = deref(respCode)
	t.ResponseDescription = deref(respDesc)
	t.CustomerMessage = deref(custMsg)
	t.MpesaReceiptNumber = deref(receipt)

	if completedStr != nil {
		ts, err := time.Parse(timeLayout, *completedStr)
		if err != nil {
			return nil, fmt.Errorf("parse completed time: %w", err)
		}
		t.CompletedAt = &ts
	}

	created, err := time.Parse(timeLayout, createdStr)
	if err != nil {
		return nil, fmt.Errorf("parse created time: %w", err)
	}
	t.CreatedAt = created

	updated, err := time.Parse(timeLayout, updatedStr)
	if err != nil {
		return nil, fmt.Errorf("parse updated time: %w", err)
	}
	t.UpdatedAt = updated

	return &t, nil
}

// nullable maps the empty string to NULL so the sparse unique indexes only
// constrain rows that actually carry a value.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
