package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeRepo struct {
	summary *Summary
	lastNow time.Time
	err     error
}

func (f *fakeRepo) Summarize(_ context.Context, now time.Time) (*Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastNow = now
	return f.summary, nil
}

func TestHandlerSummary(t *testing.T) {
	repo := &fakeRepo{summary: &Summary{TotalPatients: 120, VisitsToday: 8, RevenueToday: 450000}}
	h := NewHandler(repo)
	fixed := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	e := echo.New()
	h.RegisterRoutes(e.Group(""))
	req := httptest.NewRequest(http.MethodGet, "/dashboard/summary", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !repo.lastNow.Equal(fixed) {
		t.Errorf("now = %v, want %v", repo.lastNow, fixed)
	}

	var s Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.TotalPatients != 120 || s.VisitsToday != 8 || s.RevenueToday != 450000 {
		t.Errorf("summary = %+v", s)
	}
}

func TestHandlerSummaryNoDatabase(t *testing.T) {
	h := NewHandler(&fakeRepo{err: ErrNoDatabase})

	e := echo.New()
	h.RegisterRoutes(e.Group(""))
	req := httptest.NewRequest(http.MethodGet, "/dashboard/summary", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
