package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/config"
)

var rememberImportance float64

var rememberCmd = &cobra.Command{
	Use:   "remember <text>",
	Short: "Store something explicitly",
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

		content := strings.Join(args, " ")
		episode := mgr.Remember(cmd.Context(), content, rememberImportance)
		mgr.Flush()

		fmt.Printf("remembered %s\n", episode.ID)
		return nil
	},
}

func init() {
	rememberCmd.Flags().Float64Var(&rememberImportance, "importance", 0.7, "importance of the memory (0-1)")
}
