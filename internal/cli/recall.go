package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/config"
)

var recallLimit int

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Search stored memories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		mgr, db, err := openManager(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer db.Close()

		query := strings.Join(args, " ")
		hits := mgr.RetrieveRelevant(cmd.Context(), query, recallLimit)
		if len(hits) == 0 {
			fmt.Println("no relevant memories found")
			return nil
		}

		for _, h := range hits {
			fmt.Printf("%.2f  %s\n", h.Combined, h.Content)
		}
		return nil
	},
}

func init() {
	recallCmd.Flags().IntVar(&recallLimit, "limit", 0, "maximum results (0 uses the configured default)")
}
