package visit

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

// Visit is one patient encounter at a clinic unit.
type Visit struct {
	ID          int64      `json:"id"`
	MRN         string     `json:"mrn"`
	PatientName string     `json:"patient_name"`
	VisitDate   time.Time  `json:"visit_date"`
	Unit        string     `json:"unit"`
	Doctor      string     `json:"doctor"`
	Complaint   string     `json:"complaint"`
	Status      string     `json:"status"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// Filter narrows a visit listing. From and To bound visit_date
// inclusively.
type Filter struct {
	MRN  string
	Unit string
	From *time.Time
	To   *time.Time
}

type Repository interface {
	List(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error)
}

const visitColumns = `v.id, v.mrn, p.name, v.visit_date, v.unit, v.doctor,
	v.complaint, v.status, v.closed_at`

type repoPG struct{}

func NewRepo() Repository {
	return &repoPG{}
}

func buildWhere(f Filter) (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}

	if f.MRN != "" {
		args = append(args, f.MRN)
		clauses = append(clauses, fmt.Sprintf("v.mrn = $%d", len(args)))
	}
	if f.Unit != "" {
		args = append(args, f.Unit)
		clauses = append(clauses, fmt.Sprintf("v.unit = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		clauses = append(clauses, fmt.Sprintf("v.visit_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		clauses = append(clauses, fmt.Sprintf("v.visit_date <= $%d", len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
	pool := db.TenantPoolFromContext(ctx)
	if pool == nil {
		return nil, 0, ErrNoDatabase
	}

	where, args := buildWhere(f)

	var total int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visits v `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count visits: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM visits v
		JOIN patients p ON p.mrn = v.mrn
		%s ORDER BY v.visit_date DESC, v.id DESC LIMIT $%d OFFSET $%d`,
		visitColumns, where, len(args)+1, len(args)+2)
	rows, err := pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate visits: %w", err)
	}
	return visits, total, nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	v := &Visit{}
	err := row.Scan(&v.ID, &v.MRN, &v.PatientName, &v.VisitDate, &v.Unit,
		&v.Doctor, &v.Complaint, &v.Status, &v.ClosedAt)
	if err != nil {
		return nil, fmt.Errorf("scan visit: %w", err)
	}
	return v, nil
}
