// archivectl resolves archive queries and permission checks against a
// configured entry database, printing results as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/chronicle/backend/internal/application/access"
	"github.com/chronicle/backend/internal/application/viewctx"
	"github.com/chronicle/backend/internal/domain/archive"
	"github.com/chronicle/backend/internal/domain/identity"
	"github.com/chronicle/backend/internal/domain/shared"
	"github.com/chronicle/backend/internal/infrastructure/config"
	"github.com/chronicle/backend/internal/infrastructure/logger"
	"github.com/chronicle/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "archivectl",
		Short:         "Resolve archive queries and permission checks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ./config.toml)")

	root.AddCommand(newQueryCmd(&configPath))
	root.AddCommand(newAccessCmd(&configPath))
	return root
}

type queryFlags struct {
	kind           string
	dateField      string
	pageSize       int
	page           int
	numLatest      int
	makeObjectList bool
	allowEmpty     bool
	allowFuture    bool
	year           int
	month          int
	week           int
	day            int
	objectID       string
	slug           string
	slugField      string
}

func newQueryCmd(configPath *string) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Resolve an archive query and print the context mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zlog, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = zlog.Sync() }()

			db, err := persistence.NewDatabase(&cfg.Database, zlog, cfg.Log.Level)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			viewCfg := buildViewConfig(cfg, cmd, flags, persistence.NewGormEntrySource(db.DB))
			builder := viewctx.NewBuilder(shared.SystemClock{}, zlog)
			result, err := builder.Build(context.Background(), archive.Kind(flags.kind), viewCfg)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&flags.kind, "kind", "index", "query kind: list, index, year, month, week, day, today, detail")
	cmd.Flags().StringVar(&flags.dateField, "date-field", "", "date field to bucket on (default from config)")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", -1, "page size for the list kind (0 disables pagination)")
	cmd.Flags().IntVar(&flags.page, "page", 0, "1-based page number")
	cmd.Flags().IntVar(&flags.numLatest, "num-latest", 0, "number of records on the index kind")
	cmd.Flags().BoolVar(&flags.makeObjectList, "make-object-list", false, "include the year's full record list")
	cmd.Flags().BoolVar(&flags.allowEmpty, "allow-empty", true, "allow empty result sets")
	cmd.Flags().BoolVar(&flags.allowFuture, "allow-future", false, "include future-dated records")
	cmd.Flags().IntVar(&flags.year, "year", 0, "archive year")
	cmd.Flags().IntVar(&flags.month, "month", 0, "archive month (1-12)")
	cmd.Flags().IntVar(&flags.week, "week", 0, "archive week (1-based, week 1 contains Jan 1)")
	cmd.Flags().IntVar(&flags.day, "day", 0, "archive day of month")
	cmd.Flags().StringVar(&flags.objectID, "object-id", "", "primary key for the detail kind")
	cmd.Flags().StringVar(&flags.slug, "slug", "", "slug for the detail kind")
	cmd.Flags().StringVar(&flags.slugField, "slug-field", "slug", "field the slug is matched against")
	return cmd
}

func buildViewConfig(cfg *config.Config, cmd *cobra.Command, flags queryFlags, src archive.RecordSource) viewctx.Config {
	dateField := flags.dateField
	if dateField == "" {
		dateField = cfg.Archive.DateField
	}
	pageSize := flags.pageSize
	if pageSize < 0 {
		pageSize = cfg.Archive.PageSize
	}
	numLatest := flags.numLatest
	if numLatest <= 0 {
		numLatest = cfg.Archive.NumLatest
	}
	allowEmpty := cfg.Archive.AllowEmpty
	if cmd.Flags().Changed("allow-empty") {
		allowEmpty = flags.allowEmpty
	}
	allowFuture := cfg.Archive.AllowFuture
	if cmd.Flags().Changed("allow-future") {
		allowFuture = flags.allowFuture
	}

	return viewctx.Config{
		Source:         src,
		DateField:      dateField,
		PageSize:       pageSize,
		Page:           flags.page,
		AllowEmpty:     &allowEmpty,
		AllowFuture:    allowFuture,
		NumLatest:      numLatest,
		MakeObjectList: flags.makeObjectList,
		Year:           flags.year,
		Month:          flags.month,
		Week:           flags.week,
		Day:            flags.day,
		ObjectID:       flags.objectID,
		Slug:           flags.slug,
		SlugField:      flags.slugField,
	}
}

func newAccessCmd(configPath *string) *cobra.Command {
	var (
		username string
		action   string
		resource string
	)

	cmd := &cobra.Command{
		Use:   "access",
		Short: "Evaluate whether a configured user may perform an action",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zlog, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = zlog.Sync() }()

			dir, err := buildDirectory(cfg.Access)
			if err != nil {
				return err
			}

			allowed, err := dir.Can(username, identity.Action(action), identity.Resource(resource))
			if err != nil {
				return err
			}
			if err := printJSON(cmd, map[string]any{
				"user":     username,
				"action":   action,
				"resource": resource,
				"allowed":  allowed,
			}); err != nil {
				return err
			}
			if !allowed {
				return shared.ErrPermissionDenied
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "username to evaluate")
	cmd.Flags().StringVar(&action, "action", "", "action: create, edit, delete")
	cmd.Flags().StringVar(&resource, "resource", string(identity.ResourceEntry), "resource type")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func buildDirectory(cfg config.AccessConfig) (*access.Directory, error) {
	groups := make([]access.GroupSpec, len(cfg.Groups))
	for i, g := range cfg.Groups {
		groups[i] = access.GroupSpec{Name: g.Name, Permissions: g.Permissions}
	}
	users := make([]access.UserSpec, len(cfg.Users))
	for i, u := range cfg.Users {
		users[i] = access.UserSpec{
			Username:    u.Username,
			Active:      u.Active,
			Staff:       u.Staff,
			Superuser:   u.Superuser,
			Permissions: u.Permissions,
			Groups:      u.Groups,
		}
	}
	return access.NewDirectory(groups, users)
}

func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	zlog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, zlog, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
