package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/config"
)

var clearConfirm bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase all stored memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearConfirm {
			return fmt.Errorf("refusing to erase memory without --yes")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		mgr, db, err := openManager(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer db.Close()

		mgr.ClearAll()
		fmt.Println("all memory cleared")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearConfirm, "yes", false, "confirm erasing all memory")
}
