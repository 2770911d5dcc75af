package provider

import (
	"context"
	"net/http"
	"net/url"

	"comunidad/internal/errors"
	"comunidad/internal/model"
)

const propertiesPath = "/rest/v1/properties"

// InsertProperty persists a new property row and returns the stored
// representation, identifier and timestamp included. The id is always
// provider-generated; any id on the input is ignored.
func (c *Client) InsertProperty(ctx context.Context, accessToken string, p *model.Property) (*model.Property, error) {
	row := map[string]string{
		"user_id": p.UserID,
		"bloque":  p.Bloque,
		"portal":  p.Portal,
		"planta":  p.Planta,
		"letra":   p.Letra,
		"tipo":    p.Tipo,
	}
	req, err := c.newRequest(ctx, http.MethodPost, propertiesPath, accessToken, []map[string]string{row})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	var inserted []model.Property
	if err := c.do(req, &inserted); err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, errors.NewProviderError(http.StatusOK, "insert returned no representation")
	}
	return &inserted[0], nil
}

// ListProperties returns every property owned by userID, newest first.
func (c *Client) ListProperties(ctx context.Context, accessToken, userID string) ([]model.Property, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("user_id", "eq."+userID)
	query.Set("order", "created_at.desc")

	req, err := c.newRequest(ctx, http.MethodGet, propertiesPath+"?"+query.Encode(), accessToken, nil)
	if err != nil {
		return nil, err
	}

	var rows []model.Property
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteProperty removes a property row by identifier.
func (c *Client) DeleteProperty(ctx context.Context, accessToken, id string) error {
	query := url.Values{}
	query.Set("id", "eq."+id)

	req, err := c.newRequest(ctx, http.MethodDelete, propertiesPath+"?"+query.Encode(), accessToken, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// CountProperties reports how many properties userID owns, fetching at most
// one row. It exists for the dashboard gate, which only needs existence.
func (c *Client) CountProperties(ctx context.Context, accessToken, userID string) (int, error) {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("user_id", "eq."+userID)
	query.Set("limit", "1")

	req, err := c.newRequest(ctx, http.MethodGet, propertiesPath+"?"+query.Encode(), accessToken, nil)
	if err != nil {
		return 0, err
	}

	var rows []model.Property
	if err := c.do(req, &rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
