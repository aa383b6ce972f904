package pharmacy

import (
	"errors"
	"net/http"

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
	g.GET("/pharmacy/stock", h.List)
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	f := Filter{
		Name:         c.QueryParam("name"),
		BelowMinimum: c.QueryParam("below_minimum") == "true",
	}

	items, total, err := h.repo.List(c.Request().Context(), f, params.Limit, params.Offset())
	if err != nil {
		if errors.Is(err, ErrNoDatabase) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, ErrNoDatabase.Error())
		}
		return err
	}
	if items == nil {
		items = []*StockItem{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, params, total))
}
