package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinidash/clinidash/pkg/pagination"
)

// Handler exposes patient reporting endpoints backed by the tenant
// database bound to the request.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.List)
	g.GET("/patients/:mrn", h.Get)
	g.GET("/patients/:mrn/family", h.Family)
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	f := Filter{
		Name:      c.QueryParam("name"),
		MRN:       c.QueryParam("mrn"),
		Gender:    c.QueryParam("gender"),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}

	patients, total, err := h.repo.List(c.Request().Context(), f, params.Limit, params.Offset())
	if err != nil {
		return httpError(err)
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, params, total))
}

func (h *Handler) Get(c echo.Context) error {
	pt, err := h.repo.GetByMRN(c.Request().Context(), c.Param("mrn"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pt)
}

func (h *Handler) Family(c echo.Context) error {
	ctx := c.Request().Context()
	pt, err := h.repo.GetByMRN(ctx, c.Param("mrn"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return httpError(err)
	}
	if pt.MemberNumber == "" {
		return c.JSON(http.StatusOK, []*Patient{})
	}

	members, err := h.repo.FamilyMembers(ctx, pt.MemberNumber, pt.MRN)
	if err != nil {
		return httpError(err)
	}
	if members == nil {
		members = []*Patient{}
	}
	return c.JSON(http.StatusOK, members)
}

func httpError(err error) error {
	if errors.Is(err, ErrNoDatabase) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrNoDatabase.Error())
	}
	return err
}
