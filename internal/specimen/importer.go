package specimen

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Saver persists imported specimens. Saving an existing id replaces it.
type Saver interface {
	SaveSpecimen(ctx context.Context, rec Record) error
}

// ImportConfig describes the column layout of a specimen sheet.
// Columns are zero-based indexes into a row.
type ImportConfig struct {
	FilePath  string
	SheetName string // xlsx only; empty = first sheet
	StartRow  int    // 1-based; rows before it are skipped

	IDColumn      int
	SpeciesColumn int
	GenusColumn   int
	FamilyColumn  int
	CommonColumn  int
	DNAColumn     int
	QualityColumn int
}

// DefaultImportConfig returns the layout id, species, genus, family, common
// name, dna sequenced, quality score with a header row.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		StartRow:      2,
		IDColumn:      0,
		SpeciesColumn: 1,
		GenusColumn:   2,
		FamilyColumn:  3,
		CommonColumn:  4,
		DNAColumn:     5,
		QualityColumn: 6,
	}
}

// ImportResult summarizes an import run.
type ImportResult struct {
	TotalProcessed int
	Saved          int
	Skipped        int
	Errors         []string
}

// Import reads specimens from an .xlsx or .csv file and saves every valid
// row. Row-level problems are collected in the result rather than aborting.
func Import(ctx context.Context, cfg ImportConfig, saver Saver) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(cfg.FilePath), ".csv") {
		rows, err = readCSV(cfg.FilePath)
	} else {
		rows, err = readExcel(cfg.FilePath, cfg.SheetName)
	}
	if err != nil {
		return nil, err
	}
	return importRows(ctx, rows, cfg, saver)
}

func importRows(ctx context.Context, rows [][]string, cfg ImportConfig, saver Saver) (*ImportResult, error) {
	result := &ImportResult{}
	for i, row := range rows {
		if i < cfg.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++

		rec, err := parseRow(row, cfg)
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		if err := saver.SaveSpecimen(ctx, rec); err != nil {
			return result, fmt.Errorf("save specimen %q (row %d): %w", rec.ID, i+1, err)
		}
		result.Saved++
	}
	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(row []string, cfg ImportConfig) (Record, error) {
	rec := Record{
		ID:          cell(row, cfg.IDColumn),
		SpeciesName: cell(row, cfg.SpeciesColumn),
		Genus:       cell(row, cfg.GenusColumn),
		Family:      cell(row, cfg.FamilyColumn),
		CommonName:  cell(row, cfg.CommonColumn),
	}

	if v := cell(row, cfg.DNAColumn); v != "" {
		dna, err := parseBool(v)
		if err != nil {
			return Record{}, fmt.Errorf("dna sequenced: %w", err)
		}
		rec.DNASequenced = dna
	}

	if v := cell(row, cfg.QualityColumn); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Record{}, fmt.Errorf("quality score: %w", err)
		}
		rec.QualityScore = &q
	}
	return rec, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y", "x":
		return true, nil
	case "no", "n", "-":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
