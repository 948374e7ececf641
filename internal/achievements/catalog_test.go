package achievements

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 0)

	seen := make(map[RequirementType]bool)
	for _, d := range c.List("") {
		seen[d.Type] = true
	}
	for _, rt := range AllRequirementTypes() {
		assert.True(t, seen[rt], "default catalog has no %s achievement", rt)
	}

	d, ok := c.Get("dna_specialist")
	require.True(t, ok)
	n, err := d.Threshold()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestCatalogList(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	streaks := c.List("streak")
	require.NotEmpty(t, streaks)
	for _, d := range streaks {
		assert.Equal(t, "streak", d.Category)
	}
	assert.Empty(t, c.List("no-such-category"))
	assert.Contains(t, c.Categories(), "science")

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestParseCatalog_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "achievements: [unclosed"},
		{"missing achievements", "version: 1\n"},
		{"unknown field", `
achievements:
  - id: a
    name: A
    category: c
    requirement_type: first_correct
    points: 1
    rarity: common
    colour: red
`},
		{"bad requirement type", `
achievements:
  - id: a
    name: A
    category: c
    requirement_type: seventh_sense
    points: 1
    rarity: common
`},
		{"bad rarity", `
achievements:
  - id: a
    name: A
    category: c
    requirement_type: first_correct
    points: 1
    rarity: mythic
`},
		{"negative points", `
achievements:
  - id: a
    name: A
    category: c
    requirement_type: first_correct
    points: -5
    rarity: common
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestParseCatalog_SemanticErrors(t *testing.T) {
	data := `
achievements:
  - id: streak_x
    name: Streak
    category: streak
    requirement_type: streak
    requirement_value: lots
    points: 1
    rarity: common
  - id: owl
    name: Owl
    category: habits
    requirement_type: time_based
    requirement_value: midnight
    points: 1
    rarity: common
  - id: dup
    name: Dup
    category: c
    requirement_type: first_correct
    points: 1
    rarity: common
  - id: dup
    name: Dup again
    category: c
    requirement_type: first_correct
    points: 1
    rarity: common
  - id: genus
    name: Genus
    category: c
    requirement_type: genus_accuracy
    points: 1
    rarity: common
`
	_, err := ParseCatalog([]byte(data))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCatalog))

	var ce *CatalogError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "streak_x", ce.ID)

	for _, id := range []string{"streak_x", "owl", "dup", "genus"} {
		assert.Contains(t, err.Error(), id)
	}
}

func TestParseCatalog_NumericValueAsString(t *testing.T) {
	data := `
achievements:
  - id: streak_3
    name: Three
    category: streak
    requirement_type: streak
    requirement_value: "3"
    points: 5
    rarity: common
`
	c, err := ParseCatalog([]byte(data))
	require.NoError(t, err)
	d, _ := c.Get("streak_3")
	n, err := d.Threshold()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultCatalog, 0o644))

	c, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 0)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRarityDisplayName(t *testing.T) {
	tests := []struct {
		r    Rarity
		want string
	}{
		{RarityCommon, "Common"},
		{RarityRare, "Rare"},
		{RarityEpic, "Epic"},
		{RarityLegendary, "Legendary"},
		{Rarity("mythic"), "mythic"},
	}
	for _, tt := range tests {
		if got := tt.r.DisplayName(); got != tt.want {
			t.Errorf("%q.DisplayName() = %q, want %q", tt.r, got, tt.want)
		}
	}
	assert.False(t, Rarity("mythic").Valid())
}
