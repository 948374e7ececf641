package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
)

// SpecimenRepo stores the specimen catalog. It implements specimen.Source
// and specimen.Saver.
type SpecimenRepo struct {
	db *sqlx.DB
}

var specimenColumns = []string{
	"id", "species_name", "genus", "family", "common_name", "dna_sequenced", "quality_score",
}

// GetSpecimen returns the specimen with the given id, or specimen.ErrNotFound.
func (r *SpecimenRepo) GetSpecimen(ctx context.Context, id string) (specimen.Record, error) {
	b := builder()
	query, args := b.Select(specimenColumns...).
		From(b.Table(tableSpecimens)).
		Where(entsql.EQ("id", id)).
		Query()

	var rec specimen.Record
	err := r.db.GetContext(ctx, &rec, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return specimen.Record{}, fmt.Errorf("%s: %w", id, specimen.ErrNotFound)
	}
	if err != nil {
		return specimen.Record{}, fmt.Errorf("get specimen: %w", err)
	}
	return rec, nil
}

// SaveSpecimen inserts or replaces a specimen.
func (r *SpecimenRepo) SaveSpecimen(ctx context.Context, rec specimen.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	var quality any
	if rec.QualityScore != nil {
		quality = *rec.QualityScore
	}
	query, args := builder().Insert(tableSpecimens).
		Columns(specimenColumns...).
		Values(rec.ID, rec.SpeciesName, rec.Genus, rec.Family, rec.CommonName, rec.DNASequenced, quality).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save specimen %s: %w", rec.ID, err)
	}
	return nil
}

// ListSpecimens returns specimens ordered by id. A non-empty genus filters
// case-insensitively.
func (r *SpecimenRepo) ListSpecimens(ctx context.Context, genus string) ([]specimen.Record, error) {
	b := builder()
	sel := b.Select(specimenColumns...).
		From(b.Table(tableSpecimens)).
		OrderBy("id")
	if genus != "" {
		sel.Where(entsql.EqualFold("genus", genus))
	}

	query, args := sel.Query()
	var recs []specimen.Record
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("list specimens: %w", err)
	}
	return recs, nil
}

// CountSpecimens returns the number of stored specimens.
func (r *SpecimenRepo) CountSpecimens(ctx context.Context) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tableSpecimens)).Query()

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count specimens: %w", err)
	}
	return n, nil
}
