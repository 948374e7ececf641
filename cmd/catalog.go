package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/achievements"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List achievements in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		defs := c.List(category)
		if len(defs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No achievements found.")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-22s  %-10s  %-16s  %-14s  %-10s  %s\n",
			"ID", "Category", "Requirement", "Value", "Rarity", "Points")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, d := range defs {
			fmt.Fprintf(out, "%-22s  %-10s  %-16s  %-14s  %-10s  %d\n",
				d.ID, d.Category, d.Type.DisplayName(), d.Value, d.Rarity.DisplayName(), d.Points)
		}
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file.yaml>",
	Short: "Validate an achievement catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := achievements.LoadCatalogFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d achievements in %d categories, OK\n",
			args[0], c.Len(), len(c.Categories()))
		return nil
	},
}

func init() {
	catalogCmd.Flags().String("category", "", "Only list this category")
	catalogCmd.AddCommand(catalogValidateCmd)
}
