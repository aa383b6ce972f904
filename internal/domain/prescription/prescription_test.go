package prescription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakeRepo struct {
	lastF Filter
	err   error
}

func (f *fakeRepo) List(_ context.Context, filter Filter, limit, offset int) ([]*Prescription, int, error) {
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
	sql, args := buildWhere(Filter{VisitID: 7, MRN: "0001"})
	wantSQL := "WHERE 1=1 AND r.visit_id = $1 AND v.mrn = $2"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if !reflect.DeepEqual(args, []interface{}{int64(7), "0001"}) {
		t.Errorf("args = %v", args)
	}
}

func TestHandlerListFilters(t *testing.T) {
	repo := &fakeRepo{}
	h := NewHandler(repo)

	rec := doGet(t, h, "/prescriptions?visit_id=42&mrn=0001")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if repo.lastF.VisitID != 42 || repo.lastF.MRN != "0001" {
		t.Errorf("filter = %+v", repo.lastF)
	}
}

func TestHandlerListBadVisitID(t *testing.T) {
	h := NewHandler(&fakeRepo{})
	rec := doGet(t, h, "/prescriptions?visit_id=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerListNoDatabase(t *testing.T) {
	h := NewHandler(&fakeRepo{err: ErrNoDatabase})
	rec := doGet(t, h, "/prescriptions")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
