package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory system statistics",
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

		s := mgr.Statistics()
		fmt.Printf("recent episodes: %d\n", s.RecentEpisodes)
		fmt.Printf("active facts:    %d (of %d total)\n", s.ActiveFacts, s.TotalFacts)
		fmt.Printf("procedures:      %d\n", s.Procedures)
		fmt.Printf("working slots:   %d\n", s.WorkingSlots)
		return nil
	},
}
