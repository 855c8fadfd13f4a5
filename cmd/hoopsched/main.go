package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/engine"
	"github.com/ncsaa/hoopsched/internal/excel"
	"github.com/ncsaa/hoopsched/internal/model"
	"github.com/ncsaa/hoopsched/internal/server"
	"github.com/ncsaa/hoopsched/internal/store"
	"github.com/ncsaa/hoopsched/internal/validator"
)

const defaultConfigFile = "league.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "hoopsched",
		Short: "NCSAA basketball league schedule generator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter league.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate schedules",
	}

	var configFile string
	scheduleCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: league.yaml in current directory)")

	var (
		outputFile string
		seed       int64
		source     string
		inputFile  string
	)
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a season schedule",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runGenerate(configPath, outputFile, source, inputFile, seed)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 uses the default deterministic seed)")
	generateCmd.Flags().StringVar(&source, "source", "yaml", "League source: yaml, xlsx or postgres")
	generateCmd.Flags().StringVar(&inputFile, "input", "", "League workbook path when --source xlsx")

	var scheduleFile string
	validateCmd := &cobra.Command{
		Use:          "validate",
		Short:        "Validate a schedule workbook against the league rules",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, scheduleFile)
		},
	}
	validateCmd.Flags().StringVarP(&scheduleFile, "schedule", "s", "schedule.xlsx", "Schedule workbook to validate")

	var (
		serveConfigFile string
		addr            string
		workers         int
	)
	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the schedule generation API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(serveConfigFile)
			if err != nil {
				return err
			}
			return runServe(configPath, addr, workers)
		},
	}
	serveCmd.Flags().StringVarP(&serveConfigFile, "config", "c", "", "Path to config file (default: league.yaml in current directory)")
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	serveCmd.Flags().IntVar(&workers, "workers", 2, "Concurrent generation workers")

	scheduleCmd.AddCommand(generateCmd, validateCmd)
	rootCmd.AddCommand(initCmd, scheduleCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# NCSAA Season Configuration
# ==========================
# This file defines the league and the parameters for generating a season
# schedule.

# Season defines the date range and daily playing windows. Weeknight and
# Saturday windows partition into game-length slots on every court.
season:
  start_date: "2026-01-05"
  end_date: "2026-02-28"
  game_duration_minutes: 60
  play_on_sunday: false
  weeknight_window:
    start: "17:00"
    end: "20:30"
  saturday_window:
    start: "08:00"
    end: "18:00"

  # Holidays are full days where no games are scheduled at any facility.
  holidays:
    - date: "2026-01-19"
      reason: "MLK Day"
    - date: "2026-02-16"
      reason: "Presidents Day"

# Rules are hard constraints. The optimizer relaxes the softer ones only as
# a last resort, and every relaxed placement is listed in the output
# workbook's Summary sheet.
rules:
  target_games_per_team: 6
  max_games_per_7_days: 2
  max_games_per_14_days: 3
  max_doubleheaders_per_season: 1
  doubleheader_break_minutes: 60
  max_rematches: 2

  # Optimizer tuning. The constraint search runs per division under a wall
  # clock budget; the greedy passes then fill whatever is left.
  cp_time_budget_seconds: 30
  cp_workers: 4
  greedy_max_passes: 20

# Priority weights rank the soft preferences. Higher wins ties; zero
# disables a preference entirely.
priority_weights:
  geographic_cluster: 60
  tier_match: 70
  respect_rivals: 80
  home_away_balance: 50
  host_home_preference: 90
  school_clustering: 100
  coach_clustering: 90
  weeknight_utilization: 75

# Strategy determines how matchups are ranked. "school_paired" bundles the
# divisions two schools share into back-to-back games at one facility so
# families with kids on multiple teams travel once.
strategy: school_paired

# Schools. Tier is competitive strength (1 strongest). Blackout dates take
# every team of the school off the calendar for that day. Rivals is a soft
# preference; do_not_play is a hard rule between the schools' teams.
schools:
  - name: Maple Grove
    cluster: north
    tier: 2
    rivals: ["Oak Ridge"]
    blackout_dates: ["2026-02-07"]
  - name: Oak Ridge
    cluster: north
    tier: 1
  - name: Somerset
    cluster: south
    tier: 3
    # do_not_play: ["Pinecrest"]
  - name: Pinecrest
    cluster: south
    tier: 2

# Teams, one per school per division. Coach names group a coach's teams
# into adjacent slots when one person coaches more than one team.
#
# Valid division names:
#   ES K-1 REC, ES 2-3 REC, ES BOYS COMP, ES GIRLS COMP,
#   MS BOYS JV, MS GIRLS JV, HS BOYS VARSITY, HS GIRLS VARSITY
teams:
  - school: Maple Grove
    division: ES K-1 REC
  - school: Maple Grove
    division: MS BOYS JV
    coach: Alvarez
  - school: Maple Grove
    division: MS GIRLS JV
    coach: Alvarez
  - school: Oak Ridge
    division: ES K-1 REC
  - school: Oak Ridge
    division: MS BOYS JV
  - school: Oak Ridge
    division: MS GIRLS JV
  - school: Somerset
    division: ES K-1 REC
  - school: Somerset
    division: MS BOYS JV
  - school: Somerset
    division: MS GIRLS JV
  - school: Pinecrest
    division: ES K-1 REC
  - school: Pinecrest
    division: MS BOYS JV
  - school: Pinecrest
    division: MS GIRLS JV

# Facilities. Courts count simultaneous games. K-1 REC plays only at
# facilities with short rims, and nobody else plays there. A facility with
# no weekdays listed is open every playing day.
facilities:
  - name: Maple Grove Gym
    courts: 2
    owned_by_school: Maple Grove
    weekdays: [Mon, Tue, Thu, Sat]
  - name: Community Fieldhouse
    courts: 3
    weekdays: [Mon, Tue, Wed, Thu, Fri, Sat]
    blackout_dates: ["2026-01-31"]
  - name: Parks Annex
    courts: 1
    short_rims: true
`

func loadLeague(ctx context.Context, cfg *config.Config, source, input string) (*model.League, error) {
	switch source {
	case "", "yaml":
		return cfg.League()
	case "xlsx":
		if input == "" {
			return nil, fmt.Errorf("--source xlsx requires --input pointing at a league workbook")
		}
		if err := excel.ReadLeague(input, cfg); err != nil {
			return nil, err
		}
		return cfg.League()
	case "postgres":
		return store.Load(ctx, store.NewConfigFromEnv().DSN())
	default:
		return nil, fmt.Errorf("unknown source %q (want yaml, xlsx or postgres)", source)
	}
}

func runGenerate(configPath, outputPath, source, input string, seed int64) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	league, err := loadLeague(ctx, cfg, source, input)
	if err != nil {
		return fmt.Errorf("loading league: %w", err)
	}

	divisions := 0
	for _, d := range model.Divisions() {
		if len(league.TeamsInDivision(d)) > 0 {
			divisions++
		}
	}
	fmt.Printf("Scheduling %d teams across %d divisions, target %d games each...\n",
		len(league.Teams), divisions, cfg.Rules.TargetGamesPerTeam)

	eng := engine.New(cfg, league, seed, log.Logger)
	sched, report, err := eng.Generate(ctx)
	if err != nil {
		return err
	}

	if report.Cancelled {
		fmt.Fprintln(os.Stderr, "⚠ Generation interrupted; writing the partial schedule")
	} else if report.Clean() {
		fmt.Printf("✓ All %d games placed cleanly\n", sched.Len())
	}

	fmt.Println("\nPer Team Summary:")
	fmt.Printf("  %-28s %5s %5s %5s %3s\n", "Team", "Games", "Home", "Away", "DH")
	for _, team := range league.Teams {
		st := report.PerTeamStats[team.ID]
		if st == nil {
			continue
		}
		fmt.Printf("  %-28s %5d %5d %5d %3d\n", team.ID, st.Games, st.Home, st.Away, st.Doubleheaders)
	}

	warnings := engine.SummaryWarnings(report)
	if len(warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ No warnings")
	}

	f, err := excel.Generate(cfg, league, sched, report)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)

	switch {
	case report.Cancelled:
		return fmt.Errorf("generation cancelled before completion")
	case len(report.HardViolations) > 0:
		return fmt.Errorf("%d hard violations in generated schedule", len(report.HardViolations))
	case len(report.Shortfalls) > 0:
		return fmt.Errorf("schedule is incomplete: %d teams short of target", len(report.Shortfalls))
	}
	return nil
}

func runValidate(configPath, schedulePath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	league, err := cfg.League()
	if err != nil {
		return fmt.Errorf("loading league: %w", err)
	}

	violations, err := validator.Validate(cfg, league, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	for _, v := range violations {
		switch v.Type {
		case "error":
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			fmt.Printf("⚠ %s\n", v.Message)
		}
	}

	errs := validator.Errors(violations)
	fmt.Printf("\nValidation complete: %d rule violations, %d warnings\n", errs, len(violations)-errs)
	if errs > 0 {
		return fmt.Errorf("%d rule violations found", errs)
	}
	return nil
}

func runServe(configPath, addr string, workers int) error {
	if zerolog.GlobalLevel() > zerolog.InfoLevel {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	league, err := cfg.League()
	if err != nil {
		return fmt.Errorf("loading league: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg, league, workers, log.Logger)
	return srv.Run(ctx, addr)
}
