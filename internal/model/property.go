package model

import "time"

// Occupant roles accepted by the property store.
const (
	RoleDueno           = "Dueno"
	RolePropertyManager = "PropertyManager"
	RoleInquilino       = "Inquilino"
)

// Property is a vivienda record owned by exactly one user. Records are
// created and deleted but never edited in place.
type Property struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Bloque    string    `json:"bloque"`
	Portal    string    `json:"portal"`
	Planta    string    `json:"planta"`
	Letra     string    `json:"letra"`
	Tipo      string    `json:"tipo"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// PropertyInput carries the user-supplied fields of a new property record.
// All four locator fields and the role tag are required.
type PropertyInput struct {
	Bloque string `json:"bloque" form:"bloque" validate:"required"`
	Portal string `json:"portal" form:"portal" validate:"required"`
	Planta string `json:"planta" form:"planta" validate:"required"`
	Letra  string `json:"letra" form:"letra" validate:"required"`
	Tipo   string `json:"tipo" form:"tipo" validate:"required,oneof=Dueno PropertyManager Inquilino"`
}
