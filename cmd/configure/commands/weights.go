package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fluentive/fluentive/internal/config"
	"github.com/fluentive/fluentive/internal/database"
	"github.com/fluentive/fluentive/internal/models"
	"github.com/spf13/cobra"
)

// NewWeightsCmd creates the weights configuration command with list, get and
// set subcommands.
func NewWeightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Manage scoring weight profiles",
		Long:  "List, inspect or update the category weight profiles used by the scorer. Stored in database.",
	}
	cmd.AddCommand(newWeightsListCmd())
	cmd.AddCommand(newWeightsGetCmd())
	cmd.AddCommand(newWeightsSetCmd())
	return cmd
}

func newWeightsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored weight profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openScoringConfig()
			if err != nil {
				return err
			}
			defer closeDB()

			names, err := repo.ListProfiles(context.Background())
			if err != nil {
				return fmt.Errorf("list weight profiles: %w", err)
			}
			if len(names) == 0 {
				fmt.Println("No weight profiles in database. Use 'weights set' to add one.")
				return nil
			}
			fmt.Println("Weight profiles:")
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
}

func newWeightsGetCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show one weight profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			repo, closeDB, err := openScoringConfig()
			if err != nil {
				return err
			}
			defer closeDB()

			weights, err := repo.GetWeights(context.Background(), name)
			if err != nil {
				return fmt.Errorf("get weight profile: %w", err)
			}
			if weights == nil {
				fmt.Printf("No profile named %q in database.\n", name)
				return nil
			}

			categories := make([]string, 0, len(weights))
			for c := range weights {
				categories = append(categories, string(c))
			}
			sort.Strings(categories)

			fmt.Printf("Profile %q:\n", name)
			for _, c := range categories {
				fmt.Printf("  %-12s %.3f\n", c, weights[models.Category(c)])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	return cmd
}

func newWeightsSetCmd() *cobra.Command {
	var name string
	var weightsJSON string
	var pairs []string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a weight profile",
		Long:  "Store a profile either as JSON (--weights '{\"grammar\":0.3,...}') or as repeated --weight category=value flags. Weights must sum to 1.0.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			weights, err := parseWeights(weightsJSON, pairs)
			if err != nil {
				return err
			}

			var sum float64
			for _, w := range weights {
				sum += w
			}
			if sum < 0.999 || sum > 1.001 {
				return fmt.Errorf("weights must sum to 1.0, got %.3f", sum)
			}

			repo, closeDB, err := openScoringConfig()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.SetWeights(context.Background(), name, weights); err != nil {
				return fmt.Errorf("set weight profile: %w", err)
			}
			fmt.Printf("Weight profile %q updated.\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&weightsJSON, "weights", "", "Profile as a JSON object of category to weight")
	cmd.Flags().StringArrayVar(&pairs, "weight", nil, "Single weight as category=value (repeatable)")
	return cmd
}

func parseWeights(weightsJSON string, pairs []string) (map[models.Category]float64, error) {
	if weightsJSON != "" {
		weights := make(map[models.Category]float64)
		if err := json.Unmarshal([]byte(weightsJSON), &weights); err != nil {
			return nil, fmt.Errorf("parse --weights: %w", err)
		}
		return weights, nil
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("either --weights or at least one --weight is required")
	}

	weights := make(map[models.Category]float64, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --weight %q (expected category=value)", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight value in %q: %w", pair, err)
		}
		weights[models.Category(strings.TrimSpace(parts[0]))] = value
	}
	return weights, nil
}

func openScoringConfig() (*database.ScoringConfigRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return database.NewScoringConfigRepository(db), closeDB, nil
}
