// cmd/garage-search/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"garage-advisor/internal/app"
	"garage-advisor/internal/common/config"
	"garage-advisor/internal/common/database"
	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"

	"github.com/spf13/cobra"
)

// environment is what every subcommand runs against.
type environment struct {
	components *app.Components
	close      func()
}

type envFunc func(configPath string) (*environment, error)

// defaultEnv loads configuration and wires the real components. Logs go to
// stderr so stdout carries only results.
func defaultEnv(configPath string) (*environment, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	log := logger.NewZapAdapter(logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: "console",
		Output: "stderr",
	}))

	closer := func() {}
	var redis *database.RedisClient
	if cfg.Database.Redis.Address != "" && cfg.Places.CacheTTL > 0 {
		if redis, err = connectRedis(cfg.Database.Redis); err != nil {
			log.Warn("redis unavailable, caching disabled", map[string]interface{}{"error": err.Error()})
			redis = nil
		} else {
			closer = func() { _ = redis.Close() }
		}
	}

	return &environment{
		components: app.New(cfg, app.NewCache(cfg, redis, log), nil, log),
		close:      closer,
	}, nil
}

func connectRedis(cfg config.RedisConfig) (*database.RedisClient, error) {
	redis, err := database.NewRedis(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redis.Ping(ctx); err != nil {
		_ = redis.Close()
		return nil, err
	}
	return redis, nil
}

func newRootCmd(out io.Writer, env envFunc) *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	root := &cobra.Command{
		Use:           "garage-search",
		Short:         "Find UAE garages for a vehicle issue, or ask for a diagnosis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config.yaml (default: configs/config.yaml)")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")

	withEnv := func(run func(cmd *cobra.Command, e *environment) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			e, err := env(configPath)
			if err != nil {
				return err
			}
			defer e.close()
			return run(cmd, e)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "regions",
			Short: "List supported regions",
			Args:  cobra.NoArgs,
			RunE: withEnv(func(cmd *cobra.Command, e *environment) error {
				regions := e.components.Registry.All()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), regions)
				}
				for _, r := range regions {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %.4f, %.4f  radius %dm\n", r.Name, r.Center.Lat, r.Center.Lng, r.RadiusMeters)
				}
				return nil
			}),
		},
		newSearchCmd(withEnv, &asJSON),
		newDiagnoseCmd(withEnv, &asJSON),
	)
	return root
}

type envRunner func(run func(cmd *cobra.Command, e *environment) error) func(*cobra.Command, []string) error

func newSearchCmd(withEnv envRunner, asJSON *bool) *cobra.Command {
	var req models.SearchRequest

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search and rank garages in a region",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, e *environment) error {
			garages, err := e.components.Orchestrator.Run(cmd.Context(), req)
			if err != nil {
				return userError(err)
			}
			if *asJSON {
				return writeJSON(cmd.OutOrStdout(), garages)
			}
			printGarages(cmd.OutOrStdout(), garages)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Region, "region", "", "region name, e.g. Dubai")
	cmd.Flags().StringVar(&req.VehicleMake, "make", "", "vehicle make, e.g. Toyota")
	cmd.Flags().StringVar(&req.IssueText, "issue", "", "free-text description of the problem")
	return cmd
}

func newDiagnoseCmd(withEnv envRunner, asJSON *bool) *cobra.Command {
	var (
		req  models.DiagnosisRequest
		year string
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Ask the diagnostic service about a vehicle issue",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, e *environment) error {
			req.CarYear = models.YearText(year)
			diag, err := e.components.Diagnosis.Diagnose(cmd.Context(), req)
			if err != nil {
				return userError(err)
			}
			if *asJSON {
				return writeJSON(cmd.OutOrStdout(), diag)
			}
			fmt.Fprintln(cmd.OutOrStdout(), diag.Text)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.CarMake, "make", "", "vehicle make")
	cmd.Flags().StringVar(&req.CarModel, "model", "", "vehicle model")
	cmd.Flags().StringVar(&year, "year", "", "model year")
	cmd.Flags().StringVar(&req.IssueDescription, "issue", "", "description of the problem")
	cmd.Flags().StringVar(&req.Language, "lang", "en", "response language: en or ar")
	return cmd
}

func printGarages(w io.Writer, garages []models.RankedGarage) {
	if len(garages) == 0 {
		fmt.Fprintln(w, "No garages matched. Try a broader issue description or another region.")
		return
	}
	for i, g := range garages {
		fmt.Fprintf(w, "%d. %s  (score %.2f, rating %.1f from %d reviews)\n", i+1, g.Name, g.RelevanceScore, g.Rating, g.ReviewCount)
		fmt.Fprintf(w, "   %s\n", g.Address)
		if g.Phone != "" {
			fmt.Fprintf(w, "   phone: %s\n", g.Phone)
		}
		fmt.Fprintf(w, "   hours: %s\n", g.WorkingHours)
		if len(g.Services) > 0 {
			fmt.Fprintf(w, "   services: %s\n", strings.Join(g.Services, ", "))
		}
	}
}

// userError keeps the error code for scripts and shows the user-facing text.
func userError(err error) error {
	return fmt.Errorf("%s: %s", apperrors.CodeOf(err), apperrors.UserMessage(err))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
