package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"comunidad/internal/errors"
	"comunidad/internal/guard"
	"comunidad/internal/model"
	"comunidad/internal/property"
	"comunidad/internal/session"
)

// DashboardHandler serves the screens behind the route guard plus the
// onboarding flow.
type DashboardHandler struct {
	identity session.IdentityAPI
	records  property.RecordsAPI
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(identity session.IdentityAPI, records property.RecordsAPI) *DashboardHandler {
	return &DashboardHandler{identity: identity, records: records}
}

// DashboardResponse is the dashboard payload.
type DashboardResponse struct {
	User       *model.User      `json:"user"`
	Nombre     string           `json:"nombre"`
	Properties []model.Property `json:"properties"`
}

// Dashboard godoc
// @Summary Dashboard for the logged-in user
// @Tags pages
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	user := guard.UserFromContext(c)
	if user == nil {
		return mapped(c, errors.ErrNoSession)
	}

	store := property.NewStore(h.records, property.StaticToken(guard.TokenFromContext(c)))
	properties, err := store.List(c.Request().Context(), user.ID)
	if err != nil {
		return mapped(c, err)
	}

	return c.JSON(http.StatusOK, DashboardResponse{
		User:       user,
		Nombre:     user.DisplayName(),
		Properties: properties,
	})
}

// Profile godoc
// @Summary Profile of the logged-in user
// @Tags pages
// @Produce json
// @Success 200 {object} model.User
// @Router /profile [get]
func (h *DashboardHandler) Profile(c echo.Context) error {
	user := guard.UserFromContext(c)
	if user == nil {
		return mapped(c, errors.ErrNoSession)
	}
	return c.JSON(http.StatusOK, user)
}

// Onboarding godoc
// @Summary Property onboarding screen data
// @Tags onboarding
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 302 {string} string "redirect to /login when unauthenticated"
// @Router /onboarding/properties [get]
func (h *DashboardHandler) Onboarding(c echo.Context) error {
	user, token, err := h.resolveUser(c)
	if err != nil {
		return c.Redirect(http.StatusFound, guard.LoginPath+"?"+guard.RedirectedParam+"=true")
	}

	store := property.NewStore(h.records, property.StaticToken(token))
	properties, err := store.List(c.Request().Context(), user.ID)
	if err != nil {
		return mapped(c, err)
	}

	return c.JSON(http.StatusOK, DashboardResponse{
		User:       user,
		Nombre:     user.DisplayName(),
		Properties: properties,
	})
}

// AddProperty godoc
// @Summary Add a vivienda record
// @Tags onboarding
// @Accept json
// @Produce json
// @Param request body model.PropertyInput true "Property fields"
// @Success 201 {object} model.Property
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /onboarding/properties [post]
func (h *DashboardHandler) AddProperty(c echo.Context) error {
	user, token, err := h.resolveUser(c)
	if err != nil {
		return mapped(c, errors.ErrNoSession)
	}

	var input model.PropertyInput
	if err := c.Bind(&input); err != nil {
		return badRequest(c, "invalid request body")
	}

	store := property.NewStore(h.records, property.StaticToken(token))
	record, err := store.Add(c.Request().Context(), user.ID, input)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// DeleteProperty godoc
// @Summary Delete a vivienda record
// @Tags onboarding
// @Param id path string true "Property ID"
// @Success 204 {string} string "deleted"
// @Failure 401 {object} errors.ErrorResponse
// @Router /onboarding/properties/{id} [delete]
func (h *DashboardHandler) DeleteProperty(c echo.Context) error {
	_, token, err := h.resolveUser(c)
	if err != nil {
		return mapped(c, errors.ErrNoSession)
	}

	store := property.NewStore(h.records, property.StaticToken(token))
	if err := store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return mapped(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// resolveUser live-validates the request's session cookie. Onboarding sits
// outside the guard's route sets, so it performs its own check.
func (h *DashboardHandler) resolveUser(c echo.Context) (*model.User, string, error) {
	access, _ := sessionCookies(c)
	if access == "" {
		return nil, "", errors.ErrNoSession
	}
	user, err := h.identity.GetUser(c.Request().Context(), access)
	if err != nil {
		return nil, "", err
	}
	return user, access, nil
}
