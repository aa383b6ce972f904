package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clinidash/clinidash/internal/platform/db"
)

var ErrNoDatabase = errors.New("no tenant database bound to this request")

// Transaction is one billing record for a visit.
type Transaction struct {
	ID          int64     `json:"id"`
	VisitID     int64     `json:"visit_id"`
	MRN         string    `json:"mrn"`
	PatientName string    `json:"patient_name"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	PaidAt      time.Time `json:"paid_at"`
}

// Summary aggregates transactions over the filtered range.
type Summary struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

type Filter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

type Repository interface {
	List(ctx context.Context, f Filter, limit, offset int) ([]*Transaction, int, error)
	Summarize(ctx context.Context, f Filter) (*Summary, error)
}

type repoPG struct{}

func NewRepo() Repository {
	return &repoPG{}
}

func buildWhere(f Filter) (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}

	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		clauses = append(clauses, fmt.Sprintf("t.paid_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		clauses = append(clauses, fmt.Sprintf("t.paid_at <= $%d", len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Transaction, int, error) {
	pool := db.TenantPoolFromContext(ctx)
	if pool == nil {
		return nil, 0, ErrNoDatabase
	}

	where, args := buildWhere(f)

	var total int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions t `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf(`SELECT t.id, t.visit_id, v.mrn, p.name, t.amount,
			t.method, t.status, t.paid_at
		FROM transactions t
		JOIN visits v ON v.id = t.visit_id
		JOIN patients p ON p.mrn = v.mrn
		%s ORDER BY t.paid_at DESC, t.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, total, nil
}

func (r *repoPG) Summarize(ctx context.Context, f Filter) (*Summary, error) {
	pool := db.TenantPoolFromContext(ctx)
	if pool == nil {
		return nil, ErrNoDatabase
	}

	where, args := buildWhere(f)

	s := &Summary{}
	err := pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(t.amount), 0) FROM transactions t `+where,
		args...).Scan(&s.Count, &s.Total)
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}
	return s, nil
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	tx := &Transaction{}
	err := row.Scan(&tx.ID, &tx.VisitID, &tx.MRN, &tx.PatientName, &tx.Amount,
		&tx.Method, &tx.Status, &tx.PaidAt)
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return tx, nil
}
