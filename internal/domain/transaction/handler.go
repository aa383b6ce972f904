package transaction

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
	g.GET("/transactions", h.List)
	g.GET("/transactions/summary", h.Summary)
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)

	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}

	list, total, err := h.repo.List(c.Request().Context(), f, params.Limit, params.Offset())
	if err != nil {
		return httpError(err)
	}
	if list == nil {
		list = []*Transaction{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, params, total))
}

func (h *Handler) Summary(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}

	s, err := h.repo.Summarize(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func filterFromQuery(c echo.Context) (Filter, error) {
	f := Filter{Status: c.QueryParam("status")}
	var err error
	if f.From, err = parseDate(c.QueryParam("from")); err != nil {
		return f, echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
	}
	if f.To, err = parseDate(c.QueryParam("to")); err != nil {
		return f, echo.NewHTTPError(http.StatusBadRequest, "to must be YYYY-MM-DD")
	}
	if f.To != nil {
		end := f.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	return f, nil
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

func httpError(err error) error {
	if errors.Is(err, ErrNoDatabase) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrNoDatabase.Error())
	}
	return err
}
