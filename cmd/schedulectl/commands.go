package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/app"
	"github.com/Freeeeeet/sirius_schedule/internal/config"
	"github.com/Freeeeeet/sirius_schedule/internal/connectivity"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/remote"
	"github.com/Freeeeeet/sirius_schedule/internal/repository"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

var (
	resolveEntity string
	resolveKind   string
	resolveWeek   int
	resolveForce  bool
	resolveJSON   bool

	migrateDown bool

	purgeOlderThan time.Duration

	resolveCmd = &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one week through the cache-or-fetch engine and print the terminal outcome",
		RunE:  runResolve,
	}

	groupsCmd = &cobra.Command{
		Use:   "groups [query]",
		Short: "List groups from the remote catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGroups,
	}

	teachersCmd = &cobra.Command{
		Use:   "teachers [query]",
		Short: "List teachers from the remote catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTeachers,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations (or roll back one with --down)",
		RunE:  runMigrate,
	}

	purgeCmd = &cobra.Command{
		Use:   "purge-notifications",
		Short: "Delete notification dedup records older than --older-than",
		RunE:  runPurge,
	}
)

func init() {
	resolveCmd.Flags().StringVar(&resolveEntity, "entity", "", "group name or teacher id")
	resolveCmd.Flags().StringVar(&resolveKind, "kind", "", "group or teacher (guessed from the prefix when empty)")
	resolveCmd.Flags().IntVar(&resolveWeek, "week", 0, "week offset relative to the current week")
	resolveCmd.Flags().BoolVar(&resolveForce, "force", false, "bypass the cache for stable weeks")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print lessons as JSON")
	_ = resolveCmd.MarkFlagRequired("entity")

	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the last migration")

	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 30*24*time.Hour, "age of records to delete")
}

func newClient(cfg *config.Config, logger *zap.Logger) (*remote.Client, error) {
	return remote.NewClient(remote.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		Burst:     1,
	}, logger)
}

func newCatalog(cmd *cobra.Command) (*service.CatalogService, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	monitor := connectivity.NewMonitor(client, cfg.ConnectivityProbeInterval, false, nil, logger)
	monitor.Check(cmd.Context())
	return service.NewCatalogService(client, monitor, service.DefaultCatalogTTL, logger), nil
}

func runResolve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	entity, err := parseEntity(resolveEntity, resolveKind)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	monitor := connectivity.NewMonitor(client, cfg.ConnectivityProbeInterval, false, nil, logger)
	monitor.Check(ctx)

	svc := service.NewScheduleService(repository.NewScheduleCacheRepository(pool), client, monitor, cfg.VolatileWeekOffsets, nil, logger)
	outcome, ok := svc.ResolveTerminal(ctx, entity, resolveWeek, resolveForce)
	if !ok {
		return ctx.Err()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "week:    %s\n", entity.WeekID(resolveWeek))
	fmt.Fprintf(out, "online:  %t\n", monitor.IsOnline())
	fmt.Fprintf(out, "outcome: %s\n", outcome)

	if outcome.IsError() {
		return fmt.Errorf("resolve failed: %s", outcome.Message)
	}

	if resolveJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome.Lessons)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tDISCIPLINE\tTYPE\tROOM")
	for _, l := range outcome.Lessons {
		fmt.Fprintf(w, "%s\t%s-%s\t%s\t%s\t%s\n", l.Date, l.StartTime, l.EndTime, l.Discipline, l.GroupType, l.Location())
	}
	return w.Flush()
}

func runGroups(cmd *cobra.Command, args []string) error {
	catalog, err := newCatalog(cmd)
	if err != nil {
		return err
	}

	groups, err := catalog.SearchGroups(cmd.Context(), firstArg(args))
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Fprintln(cmd.OutOrStdout(), g.Name)
	}
	return nil
}

func runTeachers(cmd *cobra.Command, args []string) error {
	catalog, err := newCatalog(cmd)
	if err != nil {
		return err
	}

	teachers, err := catalog.SearchTeachers(cmd.Context(), firstArg(args))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, t := range teachers {
		fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Name)
	}
	return w.Flush()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if migrateDown {
		err = migrator.Down(ctx)
	} else {
		err = migrator.Run(ctx)
	}
	if err != nil {
		return err
	}

	version, err := migrator.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "database version: %d\n", version)
	return nil
}

func runPurge(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	deleted, err := repository.NewPreferencesRepository(pool).PurgeNotifications(ctx, time.Now().Add(-purgeOlderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted: %d\n", deleted)
	return nil
}

// parseEntity kind задаёт тип явно, иначе он определяется по префиксу
func parseEntity(raw, kind string) (model.Entity, error) {
	switch strings.ToLower(kind) {
	case "":
		return model.ParseEntity(raw)
	case "group":
		return model.Group(strings.TrimSpace(raw)), nil
	case "teacher":
		id := strings.TrimSpace(raw)
		if _, err := strconv.Atoi(id); err != nil {
			return model.Entity{}, fmt.Errorf("teacher id must be numeric: %q", id)
		}
		return model.TeacherEntity(id), nil
	default:
		return model.Entity{}, fmt.Errorf("unknown kind %q: use group or teacher", kind)
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
