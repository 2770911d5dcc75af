package handler

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"comunidad/internal/errors"
	"comunidad/internal/model"
	"comunidad/internal/property"
	"comunidad/internal/session"
)

// APIHandler serves the JSON API. Routes are mounted behind the JWT
// middleware, which verifies the provider-issued access token against the
// provider project's signing secret.
type APIHandler struct {
	identity session.IdentityAPI
	records  property.RecordsAPI
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(identity session.IdentityAPI, records property.RecordsAPI) *APIHandler {
	return &APIHandler{identity: identity, records: records}
}

// Me godoc
// @Summary Current user
// @Tags api
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/me [get]
func (h *APIHandler) Me(c echo.Context) error {
	token, ok := bearerToken(c)
	if !ok {
		return mapped(c, errors.ErrNoSession)
	}
	user, err := h.identity.GetUser(c.Request().Context(), token.Raw)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListProperties godoc
// @Summary Properties of the current user, newest first
// @Tags api
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Property
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/properties [get]
func (h *APIHandler) ListProperties(c echo.Context) error {
	token, ok := bearerToken(c)
	if !ok {
		return mapped(c, errors.ErrNoSession)
	}
	userID, err := token.Claims.GetSubject()
	if err != nil || userID == "" {
		return mapped(c, errors.ErrNoSession)
	}

	store := property.NewStore(h.records, property.StaticToken(token.Raw))
	properties, err := store.List(c.Request().Context(), userID)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, properties)
}

// AddProperty godoc
// @Summary Add a property for the current user
// @Tags api
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.PropertyInput true "Property fields"
// @Success 201 {object} model.Property
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/properties [post]
func (h *APIHandler) AddProperty(c echo.Context) error {
	token, ok := bearerToken(c)
	if !ok {
		return mapped(c, errors.ErrNoSession)
	}
	userID, err := token.Claims.GetSubject()
	if err != nil || userID == "" {
		return mapped(c, errors.ErrNoSession)
	}

	var input model.PropertyInput
	if err := c.Bind(&input); err != nil {
		return badRequest(c, "invalid request body")
	}

	store := property.NewStore(h.records, property.StaticToken(token.Raw))
	record, err := store.Add(c.Request().Context(), userID, input)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// DeleteProperty godoc
// @Summary Delete a property by id
// @Tags api
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Success 204 {string} string "deleted"
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/properties/{id} [delete]
func (h *APIHandler) DeleteProperty(c echo.Context) error {
	token, ok := bearerToken(c)
	if !ok {
		return mapped(c, errors.ErrNoSession)
	}

	store := property.NewStore(h.records, property.StaticToken(token.Raw))
	if err := store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return mapped(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// bearerToken returns the verified token the JWT middleware stored on the
// context.
func bearerToken(c echo.Context) (*jwt.Token, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	return token, ok
}
