package pharmacy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakeRepo struct {
	lastF Filter
	err   error
}

func (f *fakeRepo) List(_ context.Context, filter Filter, limit, offset int) ([]*StockItem, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.lastF = filter
	return nil, 0, nil
}

func doGet(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e.Group(""))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBuildWhere(t *testing.T) {
	sql, args := buildWhere(Filter{Name: "para", BelowMinimum: true})
	wantSQL := "WHERE 1=1 AND name ILIKE $1 AND quantity < minimum_stock"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "%para%" {
		t.Errorf("args = %v", args)
	}
}

func TestHandlerListFilters(t *testing.T) {
	repo := &fakeRepo{}
	h := NewHandler(repo)

	rec := doGet(t, h, "/pharmacy/stock?name=para&below_minimum=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if repo.lastF.Name != "para" || !repo.lastF.BelowMinimum {
		t.Errorf("filter = %+v", repo.lastF)
	}
}

func TestHandlerListNoDatabase(t *testing.T) {
	h := NewHandler(&fakeRepo{err: ErrNoDatabase})
	rec := doGet(t, h, "/pharmacy/stock")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
