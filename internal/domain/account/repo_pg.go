package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinidash/clinidash/internal/platform/auth"
	"github.com/clinidash/clinidash/internal/platform/db"
)

const accountColumns = `id, username, password_hash, role,
	sql_host, sql_database, sql_user, sql_password, created_at, updated_at`

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo creates the control-database account repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) FindByID(ctx context.Context, id int64) (*Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM dashboard_accounts WHERE id = $1`, id))
}

func (r *repoPG) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM dashboard_accounts WHERE username = $1`, username))
}

func (r *repoPG) List(ctx context.Context) ([]*Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM dashboard_accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	var host, database, user, password *string
	if a.Target != nil {
		host, database, user, password = &a.Target.Host, &a.Target.Database, &a.Target.User, &a.Target.Password
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO dashboard_accounts
			(username, password_hash, role, sql_host, sql_database, sql_user, sql_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		a.Username, a.PasswordHash, a.Role, host, database, user, password,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, a *Account) error {
	var host, database, user, password *string
	if a.Target != nil {
		host, database, user, password = &a.Target.Host, &a.Target.Database, &a.Target.User, &a.Target.Password
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE dashboard_accounts SET
			password_hash = $2, role = $3,
			sql_host = $4, sql_database = $5, sql_user = $6, sql_password = $7,
			updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.PasswordHash, a.Role, host, database, user, password,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dashboard_accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	a := &Account{}
	var role string
	var host, database, user, password *string

	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role,
		&host, &database, &user, &password, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	a.Role = auth.Role(role)
	if host != nil || database != nil || user != nil || password != nil {
		a.Target = &db.TargetCredentials{}
		if host != nil {
			a.Target.Host = *host
		}
		if database != nil {
			a.Target.Database = *database
		}
		if user != nil {
			a.Target.User = *user
		}
		if password != nil {
			a.Target.Password = *password
		}
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
