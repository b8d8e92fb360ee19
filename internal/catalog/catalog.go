// Package catalog loads vehicle records from a JSON file and keeps the
// current snapshot for concurrent readers.
package catalog

import (
	"carfit/internal/feature"
	"carfit/internal/vehicle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrEmptyCatalog is returned when a catalog yields no usable record.
var ErrEmptyCatalog = errors.New("catalog has no usable records")

// Snapshot is one immutable load of the catalog.
type Snapshot struct {
	Vehicles []vehicle.Vehicle
	// Skipped — rows dropped for missing brand, model or a positive price.
	Skipped  int
	Source   string
	LoadedAt time.Time
}

// Decode reads a JSON array of free-form objects and derives a record from
// every usable row. Index follows the position among kept rows.
func Decode(r io.Reader) ([]vehicle.Vehicle, int, error) {
	var rows []feature.Raw
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, 0, fmt.Errorf("decode catalog: %w", err)
	}

	derived := feature.DeriveAll(rows)
	vehicles := derived[:0]
	for _, v := range derived {
		if !usable(&v) {
			continue
		}
		v.Index = len(vehicles)
		vehicles = append(vehicles, v)
	}
	skipped := len(derived) - len(vehicles)

	if len(vehicles) == 0 {
		return nil, skipped, ErrEmptyCatalog
	}
	return vehicles, skipped, nil
}

func usable(v *vehicle.Vehicle) bool {
	return strings.TrimSpace(v.Brand) != "" &&
		strings.TrimSpace(v.Model) != "" &&
		vehicle.Known(v.Price) && v.Price > 0
}

// Load reads the catalog file at path.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	vehicles, skipped, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Vehicles: vehicles, Skipped: skipped, Source: path, LoadedAt: time.Now()}, nil
}

// Store holds the current snapshot. Readers get the snapshot that was current
// when they asked; a reload never changes a slice already handed out.
type Store struct {
	path string

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewStore loads path once and returns a store serving it.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Vehicles returns the records of the current snapshot. Callers must not modify them.
func (s *Store) Vehicles() []vehicle.Vehicle {
	return s.Snapshot().Vehicles
}

// Reload re-reads the catalog file. On error the previous snapshot stays in place.
func (s *Store) Reload() (*Snapshot, error) {
	if s.path == "" {
		return nil, errors.New("catalog: store has no source file")
	}

	snap, err := Load(s.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	slog.Info("Catalog loaded", "file", s.path, "records", len(snap.Vehicles), "skipped", snap.Skipped)
	return snap, nil
}
