package diagnosis

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinidash/clinidash/pkg/pagination"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/diagnoses", h.List)
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)

	f := Filter{
		ICDCode: c.QueryParam("icd"),
		MRN:     c.QueryParam("mrn"),
	}
	var err error
	if f.From, err = parseDate(c.QueryParam("from")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
	}
	if f.To, err = parseDate(c.QueryParam("to")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "to must be YYYY-MM-DD")
	}
	if f.To != nil {
		end := f.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}

	list, total, err := h.repo.List(c.Request().Context(), f, params.Limit, params.Offset())
	if err != nil {
		if errors.Is(err, ErrNoDatabase) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, ErrNoDatabase.Error())
		}
		return err
	}
	if list == nil {
		list = []*Diagnosis{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, params, total))
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
