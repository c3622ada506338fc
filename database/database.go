// The database package persists the discovered-camera inventory and the
// apply-job history. Persistence is optional: the core pipeline runs
// entirely in memory, and a nil *pg.DB simply disables these features.
package database

import (
	"fmt"

	"github.com/go-pg/pg/v10"
)

// NewConnection establishes a postgres connection and creates the schema.
// Callers own the returned handle; there is no package-level singleton.
func NewConnection(options *pg.Options) (*pg.DB, error) {
	db := pg.Connect(options)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return db, nil
}
