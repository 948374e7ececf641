// Package specimen defines the catalog records a learner is quizzed on.
package specimen

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by a Source when no specimen has the given id.
var ErrNotFound = errors.New("specimen not found")

// Record is an immutable catalog entry describing one identified specimen.
type Record struct {
	ID           string   `json:"id" db:"id"`
	SpeciesName  string   `json:"species_name" db:"species_name"`
	Genus        string   `json:"genus" db:"genus"`
	Family       string   `json:"family" db:"family"`
	CommonName   string   `json:"common_name,omitempty" db:"common_name"`
	DNASequenced bool     `json:"dna_sequenced" db:"dna_sequenced"`
	QualityScore *float64 `json:"quality_score,omitempty" db:"quality_score"`
}

// Source is a read-only specimen lookup.
type Source interface {
	GetSpecimen(ctx context.Context, id string) (Record, error)
}

// Complete reports whether the fields needed for grading are present.
func (r Record) Complete() bool {
	return strings.TrimSpace(r.SpeciesName) != "" &&
		strings.TrimSpace(r.Genus) != "" &&
		strings.TrimSpace(r.Family) != ""
}

// Validate returns an error describing the first missing or out-of-range field.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return errors.New("specimen id is required")
	case strings.TrimSpace(r.SpeciesName) == "":
		return errors.New("species name is required")
	case strings.TrimSpace(r.Genus) == "":
		return errors.New("genus is required")
	case strings.TrimSpace(r.Family) == "":
		return errors.New("family is required")
	case r.QualityScore != nil && (*r.QualityScore < 0 || *r.QualityScore > 1):
		return errors.New("quality score must be within 0..1")
	}
	return nil
}
