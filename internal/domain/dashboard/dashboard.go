package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinidash/clinidash/internal/platform/db"
)

var ErrNoDatabase = errors.New("no tenant database bound to this request")

// Summary rolls up the headline figures shown on the clinic dashboard.
type Summary struct {
	TotalPatients   int     `json:"total_patients"`
	VisitsToday     int     `json:"visits_today"`
	VisitsThisMonth int     `json:"visits_this_month"`
	OpenVisits      int     `json:"open_visits"`
	RevenueToday    float64 `json:"revenue_today"`
	LowStockDrugs   int     `json:"low_stock_drugs"`
}

type Repository interface {
	Summarize(ctx context.Context, now time.Time) (*Summary, error)
}

type repoPG struct{}

func NewRepo() Repository {
	return &repoPG{}
}

func (r *repoPG) Summarize(ctx context.Context, now time.Time) (*Summary, error) {
	pool := db.TenantPoolFromContext(ctx)
	if pool == nil {
		return nil, ErrNoDatabase
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	s := &Summary{}
	err := pool.QueryRow(ctx, `SELECT
			(SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM visits WHERE visit_date >= $1),
			(SELECT COUNT(*) FROM visits WHERE visit_date >= $2),
			(SELECT COUNT(*) FROM visits WHERE status = 'open'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE status = 'paid' AND paid_at >= $1),
			(SELECT COUNT(*) FROM drug_stock WHERE quantity < minimum_stock)`,
		dayStart, monthStart).
		Scan(&s.TotalPatients, &s.VisitsToday, &s.VisitsThisMonth,
			&s.OpenVisits, &s.RevenueToday, &s.LowStockDrugs)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	return s, nil
}
