package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinidash/clinidash/internal/platform/db"
)

const patientColumns = `mrn, name, member_number, gender, birth_date,
	identity_number, phone, address, village, district, city, province`

// sortColumns whitelists the patient columns a caller may sort on.
var sortColumns = map[string]string{
	"mrn":        "mrn",
	"name":       "name",
	"birth_date": "birth_date",
	"city":       "city",
}

type repoPG struct{}

// NewRepo creates a patient repository that queries the tenant pool
// bound to each request's context.
func NewRepo() Repository {
	return &repoPG{}
}

func pool(ctx context.Context) (*pgxpool.Pool, error) {
	p := db.TenantPoolFromContext(ctx)
	if p == nil {
		return nil, ErrNoDatabase
	}
	return p, nil
}

// buildWhere assembles the WHERE clause and its positional arguments
// for the given filter.
func buildWhere(f Filter) (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}

	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.MRN != "" {
		args = append(args, "%"+f.MRN+"%")
		clauses = append(clauses, fmt.Sprintf("mrn LIKE $%d", len(args)))
	}
	if f.Gender != "" {
		args = append(args, f.Gender)
		clauses = append(clauses, fmt.Sprintf("gender = $%d", len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause validates the requested sort against the whitelist,
// falling back to newest medical record first.
func orderClause(f Filter) string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		return "ORDER BY mrn DESC"
	}
	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s", col, order)
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	p, err := pool(ctx)
	if err != nil {
		return nil, 0, err
	}

	where, args := buildWhere(f)

	var total int
	if err := p.QueryRow(ctx,
		`SELECT COUNT(*) FROM patients `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM patients %s %s LIMIT $%d OFFSET $%d`,
		patientColumns, where, orderClause(f), len(args)+1, len(args)+2)
	rows, err := p.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		pt, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, total, nil
}

func (r *repoPG) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	p, err := pool(ctx)
	if err != nil {
		return nil, err
	}

	pt, err := scanPatient(p.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE mrn = $1`, mrn))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return pt, err
}

func (r *repoPG) FamilyMembers(ctx context.Context, memberNumber, excludeMRN string) ([]*Patient, error) {
	p, err := pool(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + patientColumns + ` FROM patients WHERE member_number = $1`
	args := []interface{}{memberNumber}
	if excludeMRN != "" {
		query += ` AND mrn <> $2`
		args = append(args, excludeMRN)
	}
	query += ` ORDER BY mrn`

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		pt, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate family members: %w", err)
	}
	return patients, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	pt := &Patient{}
	err := row.Scan(&pt.MRN, &pt.Name, &pt.MemberNumber, &pt.Gender, &pt.BirthDate,
		&pt.IdentityNumber, &pt.Phone, &pt.Address, &pt.Village, &pt.District, &pt.City, &pt.Province)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return pt, nil
}
