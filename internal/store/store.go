// Package store persists the saved-location list. The whole list is one
// JSON document written after every mutation; there are two backends, a
// local file for single-machine use and an S3 bucket when the list should
// roam between devices.
package store

import (
	"context"

	"traffic/models"
)

// ObjectName is the fixed name of the persisted document in both backends.
const ObjectName = "locations.json"

// Store is the persistence contract for the saved-location list.
type Store interface {
	// Load returns the saved list, or an empty list when nothing has been
	// saved yet.
	Load(ctx context.Context) ([]*models.Location, error)
	// Save replaces the persisted list with the given one.
	Save(ctx context.Context, locations []*models.Location) error
}
