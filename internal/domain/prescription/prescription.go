package prescription

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

// Prescription is one dispensed medication line on a visit.
type Prescription struct {
	ID           int64     `json:"id"`
	VisitID      int64     `json:"visit_id"`
	MRN          string    `json:"mrn"`
	PatientName  string    `json:"patient_name"`
	DrugName     string    `json:"drug_name"`
	Dosage       string    `json:"dosage"`
	Quantity     int       `json:"quantity"`
	Instructions string    `json:"instructions"`
	PrescribedAt time.Time `json:"prescribed_at"`
}

type Filter struct {
	VisitID int64
	MRN     string
	From    *time.Time
	To      *time.Time
}

type Repository interface {
	List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error)
}

type repoPG struct{}

func NewRepo() Repository {
	return &repoPG{}
}

func buildWhere(f Filter) (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}

	if f.VisitID != 0 {
		args = append(args, f.VisitID)
		clauses = append(clauses, fmt.Sprintf("r.visit_id = $%d", len(args)))
	}
	if f.MRN != "" {
		args = append(args, f.MRN)
		clauses = append(clauses, fmt.Sprintf("v.mrn = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		clauses = append(clauses, fmt.Sprintf("r.prescribed_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		clauses = append(clauses, fmt.Sprintf("r.prescribed_at <= $%d", len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	pool := db.TenantPoolFromContext(ctx)
	if pool == nil {
		return nil, 0, ErrNoDatabase
	}

	where, args := buildWhere(f)

	var total int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions r
		 JOIN visits v ON v.id = r.visit_id `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}

	query := fmt.Sprintf(`SELECT r.id, r.visit_id, v.mrn, p.name, r.drug_name,
			r.dosage, r.quantity, r.instructions, r.prescribed_at
		FROM prescriptions r
		JOIN visits v ON v.id = r.visit_id
		JOIN patients p ON p.mrn = v.mrn
		%s ORDER BY r.prescribed_at DESC, r.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		rx, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate prescriptions: %w", err)
	}
	return out, total, nil
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	rx := &Prescription{}
	err := row.Scan(&rx.ID, &rx.VisitID, &rx.MRN, &rx.PatientName, &rx.DrugName,
		&rx.Dosage, &rx.Quantity, &rx.Instructions, &rx.PrescribedAt)
	if err != nil {
		return nil, fmt.Errorf("scan prescription: %w", err)
	}
	return rx, nil
}
