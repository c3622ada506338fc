package database

import (
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/job"
)

// Store wraps the optional persistence features. It satisfies the job
// engine's Archiver interface.
type Store struct {
	db *pg.DB
}

// NewStore wraps an established connection.
func NewStore(db *pg.DB) *Store {
	return &Store{db: db}
}

// ArchiveJob writes a terminal job record.
func (s *Store) ArchiveJob(j *job.Job) error {
	rec := &JobRecord{
		JobId:         j.ID,
		CameraId:      j.CameraID,
		Backend:       string(j.Backend),
		State:         string(j.State),
		Error:         j.Error,
		MismatchCount: -1,
		CreatedAt:     j.CreatedAt,
		CompletedAt:   j.CompletedAt,
	}
	if j.Verification != nil && j.Verification.Available {
		rec.MismatchCount = len(j.Verification.Mismatches)
	}

	if _, err := s.db.Model(rec).Insert(); err != nil {
		return fmt.Errorf("failed to insert job record: %v", err)
	}
	return nil
}

// RecordDiscovery upserts inventory rows for a batch of discovery hits.
func (s *Store) RecordDiscovery(kind adapter.Kind, cams []adapter.DiscoveredCamera) error {
	now := time.Now()
	for _, cam := range cams {
		entry := &CameraEntry{
			CreatedAt:  now,
			ModifiedAt: now,
			Address:    cam.Address,
			Vendor:     cam.Vendor,
			Model:      cam.Model,
			Serial:     cam.Serial,
			Firmware:   cam.Firmware,
			Backend:    string(kind),
			VmsId:      cam.VMSID,
		}

		if _, err := s.db.Model(entry).
			OnConflict("(address) DO UPDATE").
			Set("modified_at = EXCLUDED.modified_at, vendor = EXCLUDED.vendor, model = EXCLUDED.model, serial = EXCLUDED.serial, firmware = EXCLUDED.firmware, backend = EXCLUDED.backend, vms_id = EXCLUDED.vms_id").
			Insert(); err != nil {
			return fmt.Errorf("failed to upsert camera entry for '%s': %v", cam.Address, err)
		}
	}
	return nil
}

// ListCameras returns up to limit inventory rows, newest first.
func (s *Store) ListCameras(limit int) ([]CameraEntry, error) {
	entries := []CameraEntry{}
	q := s.db.Model(&entries).Order("modified_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Select(); err != nil {
		return nil, fmt.Errorf("failed to query camera inventory: %v", err)
	}
	return entries, nil
}
