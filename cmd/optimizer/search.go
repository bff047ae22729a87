package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/constraints"
	"github.com/KirkDiggler/loadout-api/internal/engine/basic"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	loadoutorc "github.com/KirkDiggler/loadout-api/internal/orchestrators/loadout"
	"github.com/KirkDiggler/loadout-api/internal/optimizer"
	catalogrepo "github.com/KirkDiggler/loadout-api/internal/repositories/catalog"
	loadoutsvc "github.com/KirkDiggler/loadout-api/internal/services/loadout"
)

var (
	searchCatalogFile    string
	searchConstraintFile string
	searchRedisAddr      string
	searchSnapshotName   string
	searchTopN           int
	searchVerbose        bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for optimal loadouts",
	Long:  `Run the optimizer against a catalog (from a JSON file or Redis) with constraints read from a YAML file.`,
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchCatalogFile, "catalog", "", "catalog JSON file")
	searchCmd.Flags().StringVar(&searchConstraintFile, "constraints", "", "constraints YAML file (required)")
	searchCmd.Flags().StringVar(&searchRedisAddr, "redis", "", "Redis address, used when --catalog is not given")
	searchCmd.Flags().StringVar(&searchSnapshotName, "snapshot", "default", "named snapshot to load from Redis")
	searchCmd.Flags().IntVar(&searchTopN, "top", 0, "override the top-n result budget")
	searchCmd.Flags().BoolVar(&searchVerbose, "verbose", false, "log search progress")
	_ = searchCmd.MarkFlagRequired("constraints")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelWarn
	if searchVerbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cons, err := loadConstraints(searchConstraintFile)
	if err != nil {
		return err
	}
	if searchTopN > 0 {
		cons.Budgets.TopN = searchTopN
	}

	snap, err := resolveCatalog(ctx)
	if err != nil {
		return err
	}

	orc, err := loadoutorc.New(&loadoutorc.Config{
		Evaluator: basic.NewEvaluator(),
		Scorer:    basic.NewScorer(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var progress optimizer.ProgressFunc
	if searchVerbose {
		progress = func(ev optimizer.ProgressEvent) {
			logger.Info("progress",
				"phase", string(ev.Phase),
				"processed", ev.ProcessedStates,
				"beam", ev.BeamSize,
				"slots", fmt.Sprintf("%d/%d", ev.SlotsExpanded, ev.SlotsTotal))
		}
	}

	out, err := orc.Optimize(ctx, &loadoutsvc.OptimizeInput{
		Snapshot:    snap,
		Constraints: cons,
		Progress:    progress,
	})
	if err != nil {
		return err
	}

	printResults(out)
	return nil
}

func loadConstraints(path string) (*constraints.Constraints, error) {
	raw, err := os.ReadFile(path) // #nosec G304 // user-supplied path is the point
	if err != nil {
		return nil, fmt.Errorf("failed to read constraints file: %w", err)
	}
	var cfg constraints.Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse constraints file: %w", err)
	}
	return constraints.New(&cfg)
}

func resolveCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	if searchCatalogFile != "" {
		return loadCatalogFile(searchCatalogFile)
	}
	if searchRedisAddr == "" {
		return nil, fmt.Errorf("either --catalog or --redis is required")
	}

	repo, err := newRedisRepo(searchRedisAddr)
	if err != nil {
		return nil, err
	}
	out, err := repo.Get(ctx, catalogrepo.GetInput{Name: searchSnapshotName})
	if err != nil {
		return nil, err
	}
	return out.Snapshot, nil
}

// catalogFile is the on-disk JSON catalog format.
type catalogFile struct {
	Items []gear.Item    `json:"items"`
	Sets  []gear.SetInfo `json:"sets,omitempty"`
}

func loadCatalogFile(path string) (*catalog.Snapshot, error) {
	raw, err := os.ReadFile(path) // #nosec G304 // user-supplied path is the point
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var cf catalogFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return catalog.New(&catalog.Config{Items: cf.Items, Sets: cf.Sets})
}

func printResults(out *loadoutsvc.OptimizeOutput) {
	if len(out.Candidates) == 0 {
		fmt.Printf("no builds found (attempt=%s reason=%s)\n", out.Attempt, out.Reason)
		if out.Detail != "" {
			fmt.Printf("  %s\n", out.Detail)
		}
		if total := out.Rejections.Total(); total > 0 {
			fmt.Printf("  rejected: %d sp-infeasible, %d attack-speed, %d threshold, %d major-id, %d duplicate, %d other\n",
				out.Rejections.SPInfeasible, out.Rejections.AttackSpeed, out.Rejections.Threshold,
				out.Rejections.MajorID, out.Rejections.Duplicate, out.Rejections.OtherItem)
		}
		return
	}

	fmt.Printf("found %d build(s) via %s attempt (%d states processed)\n\n",
		len(out.Candidates), out.Attempt, out.ProcessedStates)
	for rank, c := range out.Candidates {
		fmt.Printf("#%d  score %.2f\n", rank+1, c.Score)
		for _, slot := range gear.AllSlots {
			fmt.Printf("  %-10s %s\n", slot.String()+":", c.Assignment.Get(slot))
		}
		if c.Summary != nil {
			fmt.Printf("  attack speed: %s\n", c.Summary.FinalAttackSpeed)
			keys := make([]string, 0, len(c.Breakdown))
			for k := range c.Breakdown {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %-10s %+.2f (total %.2f)\n", k+":", c.Breakdown[k], c.Summary.Total(k))
			}
		}
		fmt.Println()
	}
}
