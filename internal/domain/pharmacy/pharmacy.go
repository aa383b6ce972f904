package pharmacy

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

// StockItem is one drug in the clinic's pharmacy inventory.
type StockItem struct {
	ID           int64      `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Unit         string     `json:"unit"`
	Quantity     int        `json:"quantity"`
	MinimumStock int        `json:"minimum_stock"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Filter narrows a stock listing. BelowMinimum keeps only items whose
// quantity has fallen under their configured minimum.
type Filter struct {
	Name         string
	BelowMinimum bool
}

type Repository interface {
	List(ctx context.Context, f Filter, limit, offset int) ([]*StockItem, int, error)
}

type repoPG struct{}

func NewRepo() Repository {
	return &repoPG{}
}

func buildWhere(f Filter) (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}

	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.BelowMinimum {
		clauses = append(clauses, "quantity < minimum_stock")
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*StockItem, int, error) {
	pool := db.TenantPoolFromContext(ctx)
	if pool == nil {
		return nil, 0, ErrNoDatabase
	}

	where, args := buildWhere(f)

	var total int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM drug_stock `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count drug stock: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, code, name, unit, quantity, minimum_stock,
			expires_at, updated_at
		FROM drug_stock %s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list drug stock: %w", err)
	}
	defer rows.Close()

	var items []*StockItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate drug stock: %w", err)
	}
	return items, total, nil
}

func scanItem(row pgx.Row) (*StockItem, error) {
	it := &StockItem{}
	err := row.Scan(&it.ID, &it.Code, &it.Name, &it.Unit, &it.Quantity,
		&it.MinimumStock, &it.ExpiresAt, &it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan stock item: %w", err)
	}
	return it, nil
}
