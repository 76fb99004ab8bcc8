// Package store persists meal records and the resident registry.
//
// Every backend stores the whole collection as one JSON document. Writes are
// read-modify-write of that document: serialized within one process, last
// writer wins across processes. The store is not linearizable.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/klabast/wb-services/meal-roster/internal/roster"
)

var (
	ErrResidentNotFound = errors.New("resident not found")
	ErrInvalidResident  = errors.New("invalid resident name")
)

// Resident is a registered diner.
type Resident struct {
	Name         string    `json:"name"`
	PINHash      string    `json:"pin_hash,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Document is the persisted form of all records.
type Document struct {
	Residents map[string]Resident `json:"residents"`
	Meals     roster.Records      `json:"meals"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Residents: make(map[string]Resident),
		Meals:     make(roster.Records),
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{
		Residents: make(map[string]Resident, len(d.Residents)),
		Meals:     d.Meals.Clone(),
		UpdatedAt: d.UpdatedAt,
	}
	for k, v := range d.Residents {
		out.Residents[k] = v
	}
	return out
}

// normalize fills nil maps left by older or hand-edited documents.
func (d *Document) normalize() *Document {
	if d.Residents == nil {
		d.Residents = make(map[string]Resident)
	}
	if d.Meals == nil {
		d.Meals = make(roster.Records)
	}
	return d
}

// Backend loads and saves the whole document. Load returns an empty document
// when nothing has been saved yet.
type Backend interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
