package diagnosis

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

// Diagnosis is one ICD-coded finding recorded on a visit.
type Diagnosis struct {
	ID          int64     `json:"id"`
	VisitID     int64     `json:"visit_id"`
	MRN         string    `json:"mrn"`
	PatientName string    `json:"patient_name"`
	ICDCode     string    `json:"icd_code"`
	Description string    `json:"description"`
	Primary     bool      `json:"primary"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type Filter struct {
	ICDCode string
	MRN     string
	From    *time.Time
	To      *time.Time
}

type Repository interface {
	List(ctx context.Context, f Filter, limit, offset int) ([]*Diagnosis, int, error)
}

type repoPG struct{}

func NewRepo() Repository {
	return &repoPG{}
}

func buildWhere(f Filter) (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}

	if f.ICDCode != "" {
		args = append(args, f.ICDCode)
		clauses = append(clauses, fmt.Sprintf("d.icd_code = $%d", len(args)))
	}
	if f.MRN != "" {
		args = append(args, f.MRN)
		clauses = append(clauses, fmt.Sprintf("v.mrn = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		clauses = append(clauses, fmt.Sprintf("d.recorded_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		clauses = append(clauses, fmt.Sprintf("d.recorded_at <= $%d", len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Diagnosis, int, error) {
	pool := db.TenantPoolFromContext(ctx)
	if pool == nil {
		return nil, 0, ErrNoDatabase
	}

	where, args := buildWhere(f)

	var total int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM diagnoses d
		 JOIN visits v ON v.id = d.visit_id `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count diagnoses: %w", err)
	}

	query := fmt.Sprintf(`SELECT d.id, d.visit_id, v.mrn, p.name, d.icd_code,
			d.description, d.is_primary, d.recorded_at
		FROM diagnoses d
		JOIN visits v ON v.id = d.visit_id
		JOIN patients p ON p.mrn = v.mrn
		%s ORDER BY d.recorded_at DESC, d.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list diagnoses: %w", err)
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate diagnoses: %w", err)
	}
	return out, total, nil
}

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	d := &Diagnosis{}
	err := row.Scan(&d.ID, &d.VisitID, &d.MRN, &d.PatientName, &d.ICDCode,
		&d.Description, &d.Primary, &d.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("scan diagnosis: %w", err)
	}
	return d, nil
}
