package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import specimens from a spreadsheet",
	Long: "Import specimens from an Excel or CSV file. The default column layout is " +
		"id, species, genus, family, common name, dna sequenced, quality score, " +
		"with one header row.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := specimen.DefaultImportConfig()
		cfg.FilePath = args[0]
		cfg.SheetName, _ = cmd.Flags().GetString("sheet")
		cfg.StartRow, _ = cmd.Flags().GetInt("start-row")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := specimen.Import(cmd.Context(), cfg, s.SpecimenRepo())
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Processed %d rows: %d saved, %d skipped\n", res.TotalProcessed, res.Saved, res.Skipped)
		for _, e := range res.Errors {
			warn("%s", e)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("sheet", "", "Worksheet name (xlsx only; default first sheet)")
	importCmd.Flags().Int("start-row", specimen.DefaultImportConfig().StartRow, "First data row (1-based)")
}
