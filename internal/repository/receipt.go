package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scanledger/scanledger/internal/common"
	"github.com/scanledger/scanledger/internal/dedupe"
	"github.com/scanledger/scanledger/internal/entity"
	"github.com/scanledger/scanledger/internal/timeparse"
)

// ReceiptRepository is the persistence contract the pipeline and server
// depend on.
type ReceiptRepository interface {
	Create(ctx context.Context, cand entity.ReceiptCandidate) (*entity.Receipt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	ListBetween(ctx context.Context, from, to *time.Time) ([]*entity.Receipt, error)
	Snapshot(ctx context.Context) ([]dedupe.StoredReceipt, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type receiptRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewReceiptRepository(db *sql.DB, logger *slog.Logger) ReceiptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &receiptRepository{db: db, logger: logger}
}

// Create inserts the candidate and its items in one transaction. A conflict
// on the (purchase_datetime, total) unique index comes back as
// common.ErrDuplicate; that index is the strict half of duplicate
// detection, the fuzzy half runs against Snapshot before Create is called.
func (r *receiptRepository) Create(ctx context.Context, cand entity.ReceiptCandidate) (*entity.Receipt, error) {
	now := time.Now().UTC()
	rec := &entity.Receipt{
		ID:               uuid.New(),
		MerchantName:     cand.MerchantName,
		PurchaseDateTime: cand.PurchaseDateTime,
		Subtotal:         cand.Subtotal,
		Tax:              cand.Tax,
		Total:            cand.Total,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (id, merchant_name, purchase_datetime, subtotal, tax, total, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID.String(), rec.MerchantName, nullString(rec.PurchaseDateTime),
		rec.Subtotal, rec.Tax, rec.Total, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewAppError("RECEIPT_DUPLICATE",
				"a receipt with this datetime and total already exists", common.ErrDuplicate)
		}
		r.logger.Error("failed to insert receipt", "error", err)
		return nil, common.WrapError(err, "insert receipt")
	}

	for i, it := range cand.Items {
		item := entity.ReceiptItem{
			ID:          uuid.New(),
			ReceiptID:   rec.ID,
			Position:    i,
			Description: it.Description,
			Qty:         it.Qty,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_items (id, receipt_id, position, description, qty, unit_price, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID.String(), item.ReceiptID.String(), item.Position,
			item.Description, item.Qty, item.UnitPrice, item.LineTotal,
		)
		if err != nil {
			r.logger.Error("failed to insert receipt item", "position", i, "error", err)
			return nil, common.WrapError(err, "insert receipt item")
		}
		rec.Items = append(rec.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.WrapError(err, "commit")
	}
	r.logger.Info("receipt created", "receipt_id", rec.ID, "items", len(rec.Items))
	return rec, nil
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, merchant_name, purchase_datetime, subtotal, tax, total, created_at, updated_at
		 FROM receipts WHERE id = $1`, id.String())
	rec, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "query receipt")
	}
	if err := r.loadItems(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListBetween returns receipts whose purchase datetime falls inside the
// inclusive [from, to] day range, ordered by purchase datetime. The
// canonical datetime string sorts chronologically, so the comparison stays
// in the index.
func (r *receiptRepository) ListBetween(ctx context.Context, from, to *time.Time) ([]*entity.Receipt, error) {
	q := `SELECT id, merchant_name, purchase_datetime, subtotal, tax, total, created_at, updated_at
		 FROM receipts`
	var args []any
	var conds []string
	if from != nil {
		args = append(args, timeparse.StartOfDay(*from).Format(timeparse.Canonical))
		conds = append(conds, fmt.Sprintf("purchase_datetime >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, timeparse.EndOfDay(*to).Format(timeparse.Canonical))
		conds = append(conds, fmt.Sprintf("purchase_datetime <= $%d", len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY purchase_datetime"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list receipts", "error", err)
		return nil, common.WrapError(err, "list receipts")
	}
	defer rows.Close()

	var out []*entity.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan receipt")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate receipts")
	}
	for _, rec := range out {
		if err := r.loadItems(ctx, rec); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Snapshot fetches the comparison set for duplicate detection.
func (r *receiptRepository) Snapshot(ctx context.Context) ([]dedupe.StoredReceipt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT purchase_datetime, subtotal, tax, total FROM receipts`)
	if err != nil {
		return nil, common.WrapError(err, "snapshot receipts")
	}
	defer rows.Close()

	var out []dedupe.StoredReceipt
	for rows.Next() {
		var dt sql.NullString
		var s dedupe.StoredReceipt
		if err := rows.Scan(&dt, &s.Subtotal, &s.Tax, &s.Total); err != nil {
			return nil, common.WrapError(err, "scan snapshot row")
		}
		s.PurchaseDateTime = dt.String
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *receiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM receipts WHERE id = $1`, id.String())
	if err != nil {
		return common.WrapError(err, "delete receipt")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	// sqlite enforces ON DELETE CASCADE only with foreign keys on; delete
	// items explicitly so both drivers behave the same.
	if _, err := tx.ExecContext(ctx, `DELETE FROM receipt_items WHERE receipt_id = $1`, id.String()); err != nil {
		return common.WrapError(err, "delete receipt items")
	}
	return common.WrapError(tx.Commit(), "commit")
}

func (r *receiptRepository) loadItems(ctx context.Context, rec *entity.Receipt) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, receipt_id, position, description, qty, unit_price, line_total
		 FROM receipt_items WHERE receipt_id = $1 ORDER BY position`, rec.ID.String())
	if err != nil {
		return common.WrapError(err, "query receipt items")
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.ReceiptItem
		var id, rid string
		if err := rows.Scan(&id, &rid, &it.Position, &it.Description, &it.Qty, &it.UnitPrice, &it.LineTotal); err != nil {
			return common.WrapError(err, "scan receipt item")
		}
		it.ID, _ = uuid.Parse(id)
		it.ReceiptID, _ = uuid.Parse(rid)
		rec.Items = append(rec.Items, it)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var rec entity.Receipt
	var id string
	var dt sql.NullString
	if err := row.Scan(&id, &rec.MerchantName, &dt, &rec.Subtotal, &rec.Tax, &rec.Total,
		&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.ID, _ = uuid.Parse(id)
	rec.PurchaseDateTime = dt.String
	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
