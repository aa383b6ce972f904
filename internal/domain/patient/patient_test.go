package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakeRepo struct {
	patients []*Patient
	lastF    Filter
	lastLim  int
	lastOff  int
	err      error
}

func (f *fakeRepo) List(_ context.Context, filter Filter, limit, offset int) ([]*Patient, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.lastF, f.lastLim, f.lastOff = filter, limit, offset
	return f.patients, len(f.patients), nil
}

func (f *fakeRepo) GetByMRN(_ context.Context, mrn string) (*Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.patients {
		if p.MRN == mrn {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) FamilyMembers(_ context.Context, memberNumber, excludeMRN string) ([]*Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*Patient
	for _, p := range f.patients {
		if p.MemberNumber == memberNumber && p.MRN != excludeMRN {
			out = append(out, p)
		}
	}
	return out, nil
}

func doGet(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	g := e.Group("")
	h.RegisterRoutes(g)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "empty",
			filter:   Filter{},
			wantSQL:  "WHERE 1=1",
			wantArgs: nil,
		},
		{
			name:     "name only",
			filter:   Filter{Name: "budi"},
			wantSQL:  "WHERE 1=1 AND name ILIKE $1",
			wantArgs: []interface{}{"%budi%"},
		},
		{
			name:     "all fields",
			filter:   Filter{Name: "budi", MRN: "0001", Gender: "male"},
			wantSQL:  "WHERE 1=1 AND name ILIKE $1 AND mrn LIKE $2 AND gender = $3",
			wantArgs: []interface{}{"%budi%", "%0001%", "male"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildWhere(tt.filter)
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"default", Filter{}, "ORDER BY mrn DESC"},
		{"whitelisted asc", Filter{SortBy: "name", SortOrder: "asc"}, "ORDER BY name ASC"},
		{"whitelisted default order", Filter{SortBy: "birth_date"}, "ORDER BY birth_date DESC"},
		{"injection attempt falls back", Filter{SortBy: "name; DROP TABLE patients"}, "ORDER BY mrn DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderClause(tt.filter); got != tt.want {
				t.Errorf("orderClause() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandlerList(t *testing.T) {
	repo := &fakeRepo{patients: []*Patient{
		{MRN: "0002", Name: "Siti"},
		{MRN: "0001", Name: "Budi"},
	}}
	h := NewHandler(repo)

	rec := doGet(t, h, "/patients?name=b&gender=male&page=2&limit=5&sort_by=name")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if repo.lastF.Name != "b" || repo.lastF.Gender != "male" || repo.lastF.SortBy != "name" {
		t.Errorf("filter not forwarded: %+v", repo.lastF)
	}
	if repo.lastLim != 5 || repo.lastOff != 5 {
		t.Errorf("limit/offset = %d/%d, want 5/5", repo.lastLim, repo.lastOff)
	}

	var body struct {
		Message    string `json:"message"`
		Pagination struct {
			TotalRows int `json:"total_rows"`
		} `json:"pagination"`
		Data []*Patient `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Data) != 2 || body.Pagination.TotalRows != 2 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHandlerListNoDatabase(t *testing.T) {
	h := NewHandler(&fakeRepo{err: ErrNoDatabase})
	rec := doGet(t, h, "/patients")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no tenant database") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandlerGet(t *testing.T) {
	h := NewHandler(&fakeRepo{patients: []*Patient{{MRN: "0001", Name: "Budi"}}})

	rec := doGet(t, h, "/patients/0001")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var pt Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &pt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if pt.Name != "Budi" {
		t.Errorf("name = %q", pt.Name)
	}

	rec = doGet(t, h, "/patients/9999")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing patient status = %d, want 404", rec.Code)
	}
}

func TestHandlerFamily(t *testing.T) {
	repo := &fakeRepo{patients: []*Patient{
		{MRN: "0001", Name: "Budi", MemberNumber: "F-10"},
		{MRN: "0002", Name: "Siti", MemberNumber: "F-10"},
		{MRN: "0003", Name: "Andi", MemberNumber: "F-20"},
		{MRN: "0004", Name: "Lone"},
	}}
	h := NewHandler(repo)

	rec := doGet(t, h, "/patients/0001/family")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var members []*Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &members); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(members) != 1 || members[0].MRN != "0002" {
		t.Errorf("members = %+v, want only 0002", members)
	}

	// no member number means no family lookup
	rec = doGet(t, h, "/patients/0004/family")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %s, want empty array", rec.Body.String())
	}
}
