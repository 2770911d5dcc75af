// Package property provides user-scoped access to vivienda records held by
// the provider's data store, with a local cache of the last confirmed list.
package property

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"

	"comunidad/internal/errors"
	"comunidad/internal/model"
)

// RecordsAPI is the slice of the provider client the store needs.
type RecordsAPI interface {
	InsertProperty(ctx context.Context, accessToken string, p *model.Property) (*model.Property, error)
	ListProperties(ctx context.Context, accessToken, userID string) ([]model.Property, error)
	DeleteProperty(ctx context.Context, accessToken, id string) error
}

// TokenSource supplies the access token record calls run under.
// *session.Synchronizer satisfies it.
type TokenSource interface {
	AccessToken() string
}

// StaticToken adapts a fixed token (e.g. one taken from a request cookie)
// into a TokenSource.
type StaticToken string

// AccessToken implements TokenSource.
func (t StaticToken) AccessToken() string { return string(t) }

// Store caches the owning user's property list, newest first. The cache is
// only touched after the provider confirms a mutation; there are no
// optimistic updates, so it never silently diverges from the store of
// record.
type Store struct {
	api      RecordsAPI
	tokens   TokenSource
	validate *validator.Validate

	mu      sync.Mutex
	records []model.Property
}

// NewStore creates a Store.
func NewStore(api RecordsAPI, tokens TokenSource) *Store {
	return &Store{
		api:      api,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// Add inserts a record for userID and returns the persisted row, identifier
// provider-generated. Field validation short-circuits before any network
// call.
func (s *Store) Add(ctx context.Context, userID string, input model.PropertyInput) (*model.Property, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, errors.ValidationError("all locator fields and a valid role are required")
	}

	record := &model.Property{
		UserID: userID,
		Bloque: input.Bloque,
		Portal: input.Portal,
		Planta: input.Planta,
		Letra:  input.Letra,
		Tipo:   input.Tipo,
	}

	inserted, err := s.api.InsertProperty(ctx, s.tokens.AccessToken(), record)
	if err != nil {
		return nil, err
	}

	// Merge at the front to preserve newest-first ordering.
	s.mu.Lock()
	s.records = append([]model.Property{*inserted}, s.records...)
	s.mu.Unlock()

	return inserted, nil
}

// List fetches all records for userID, newest first, and replaces the cache
// wholesale.
func (s *Store) List(ctx context.Context, userID string) ([]model.Property, error) {
	rows, err := s.api.ListProperties(ctx, s.tokens.AccessToken(), userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.records = rows
	s.mu.Unlock()

	return snapshot(rows), nil
}

// Delete removes a record by identifier and drops it from the cache once
// the provider confirms.
func (s *Store) Delete(ctx context.Context, recordID string) error {
	if recordID == "" {
		return errors.ValidationError("record id is required")
	}

	if err := s.api.DeleteProperty(ctx, s.tokens.AccessToken(), recordID); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.records[:0]
	for _, r := range s.records {
		if r.ID != recordID {
			kept = append(kept, r)
		}
	}
	s.records = kept
	s.mu.Unlock()

	return nil
}

// Properties returns a snapshot of the cached list.
func (s *Store) Properties() []model.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.records)
}

func snapshot(rows []model.Property) []model.Property {
	out := make([]model.Property, len(rows))
	copy(out, rows)
	return out
}
