package database

import (
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
)

// CameraEntry is one row of the discovered-camera inventory.
type CameraEntry struct {
	Id         uint64
	CreatedAt  time.Time
	ModifiedAt time.Time

	Address  string `pg:",unique"`
	Vendor   string
	Model    string
	Serial   string
	Firmware string

	// Backend that discovered the camera, and the VMS-internal id when it
	// came from a VMS inventory.
	Backend string
	VmsId   string
}

// JobRecord is the archived form of a terminal apply job.
type JobRecord struct {
	Id    uint64
	JobId string `pg:",unique"`

	CameraId string
	Backend  string
	State    string
	Error    string

	// Verification summary; MismatchCount is -1 when verification was
	// unavailable or not requested.
	MismatchCount int `pg:",use_zero"`

	CreatedAt   time.Time
	CompletedAt time.Time
}

// CreateSchema creates the tables when they do not exist yet.
func CreateSchema(db *pg.DB) error {
	models := []interface{}{
		(*CameraEntry)(nil),
		(*JobRecord)(nil),
	}

	for _, model := range models {
		if err := db.Model(model).CreateTable(&orm.CreateTableOptions{
			IfNotExists: true,
		}); err != nil {
			return fmt.Errorf("failed to create tables: %v", err)
		}
	}

	return nil
}
