package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	repo Repository
	now  func() time.Time
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard/summary", h.Summary)
}

func (h *Handler) Summary(c echo.Context) error {
	s, err := h.repo.Summarize(c.Request().Context(), h.now())
	if err != nil {
		if errors.Is(err, ErrNoDatabase) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, ErrNoDatabase.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, s)
}
