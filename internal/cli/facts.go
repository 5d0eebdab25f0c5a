package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/config"
)

var factsCategory string

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "List known facts about the user",
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

		facts := mgr.Facts()
		if factsCategory != "" {
			facts = mgr.FactsByCategory(factsCategory)
		}
		if len(facts) == 0 {
			fmt.Println("no facts known yet")
			return nil
		}

		now := time.Now()
		for _, f := range facts {
			fmt.Printf("%.2f  [%s] %s\n", f.Confidence(now), f.Category(), f.Sentence())
		}
		return nil
	},
}

func init() {
	factsCmd.Flags().StringVar(&factsCategory, "category", "", "filter by category")
}
