package account

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinidash/clinidash/internal/platform/auth"
)

// Handler exposes the login endpoint and the superadmin-only
// account-management CRUD.
type Handler struct {
	svc    *Service
	signer *auth.TokenSigner
}

func NewHandler(svc *Service, signer *auth.TokenSigner) *Handler {
	return &Handler{svc: svc, signer: signer}
}

// RegisterAuthRoutes registers the unauthenticated login route.
func (h *Handler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/auth/login", h.Login)
}

// RegisterRoutes registers the account-management CRUD. These routes
// run behind the database binding middleware on its bypass path.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/accounts", h.List)
	g.POST("/accounts", h.Create)
	g.GET("/accounts/:id", h.Get)
	g.PUT("/accounts/:id", h.Update)
	g.DELETE("/accounts/:id", h.Delete)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *auth.Principal `json:"user"`
}

// Login verifies a username/password pair and issues a bearer token.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	acct, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error")
	}

	principal := acct.Principal()
	token, err := h.signer.Issue(*principal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error")
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message: "login successful",
		Token:   token,
		User:    principal,
	})
}

// requireSuperadmin rejects any caller that is not a superadmin. The
// binding middleware has already authenticated the request.
func requireSuperadmin(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil || p.Role != auth.RoleSuperadmin {
		return echo.NewHTTPError(http.StatusForbidden, "superadmin only")
	}
	return nil
}

func (h *Handler) List(c echo.Context) error {
	if err := requireSuperadmin(c); err != nil {
		return err
	}

	accounts, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error")
	}

	views := make([]View, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, a.AsView())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": views})
}

func (h *Handler) Get(c echo.Context) error {
	if err := requireSuperadmin(c); err != nil {
		return err
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	acct, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, acct.AsView())
}

func (h *Handler) Create(c echo.Context) error {
	if err := requireSuperadmin(c); err != nil {
		return err
	}

	var params CreateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	acct, err := h.svc.Create(c.Request().Context(), params)
	if errors.Is(err, ErrDuplicateUsername) {
		return echo.NewHTTPError(http.StatusConflict, "username already exists")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, acct.AsView())
}

func (h *Handler) Update(c echo.Context) error {
	if err := requireSuperadmin(c); err != nil {
		return err
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var params UpdateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	acct, err := h.svc.Update(c.Request().Context(), id, params)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	if errors.Is(err, ErrDuplicateUsername) {
		return echo.NewHTTPError(http.StatusConflict, "username already exists")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, acct.AsView())
}

func (h *Handler) Delete(c echo.Context) error {
	if err := requireSuperadmin(c); err != nil {
		return err
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "account not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "account deleted"})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	return id, nil
}
