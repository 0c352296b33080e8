package overlay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hyperengineering/cellar/internal/wine"
)

// Load reads the state stored at path. A missing file yields an empty state.
func Load(path string) (*State, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open overlay: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a state from r and upgrades older layouts: single-bottle
// consumption records become history events, and added wines are tagged
// with their origin.
func Decode(r io.Reader) (*State, error) {
	var s State
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode overlay: %w", err)
	}

	upgradeLegacy := s.ConsumptionHistory == nil
	s.ensure()

	// Upgraded events get a stable id so importing the same export twice
	// does not log the bottle twice.
	if upgradeLegacy && len(s.ConsumedWines) > 0 {
		for id, c := range s.ConsumedWines {
			s.ConsumptionHistory[id] = []wine.ConsumptionEvent{{
				ID:    LegacyEventID(id),
				Date:  c.Date,
				Notes: c.Notes,
			}}
		}
		slog.Info("upgraded legacy consumption records",
			"component", "overlay",
			"action", "upgrade",
			"count", len(s.ConsumedWines),
		)
	}

	for i := range s.AddedWines {
		if s.AddedWines[i].Origin == "" {
			s.AddedWines[i].Origin = wine.OriginUser
		}
		s.AddedWines[i].Normalize()
	}

	return &s, nil
}

// LegacyEventID is the id given to an upgraded single-bottle record.
func LegacyEventID(wineID string) string {
	return "legacy-" + wineID
}

// Encode writes the state as indented JSON.
func (s *State) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	return nil
}

// Save writes the state to path atomically through a temporary file in the
// same directory.
func (s *State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create overlay directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := s.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename overlay: %w", err)
	}
	return nil
}

// ExportAddedWines writes the added wines as an indented JSON array.
func (s *State) ExportAddedWines(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.AddedWines); err != nil {
		return fmt.Errorf("export added wines: %w", err)
	}
	return nil
}
