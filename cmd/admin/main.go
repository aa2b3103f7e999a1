// Command admin runs maintenance tasks against the complaint database.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/ids"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/obs"
	"civicdesk/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// adminActorID is recorded as the actor of status changes made here.
const adminActorID = "admin-cli"

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *storage.Service
}

func main() {
	a := &app{}
	var verbose bool

	root := &cobra.Command{
		Use:          "admin",
		Short:        "civicdesk maintenance commands",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.AddCommand(a.migrateCmd(), a.listCmd(), a.advanceCmd(), a.createStaffCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) open(ctx context.Context, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := obs.NewLogger(level)
	if err != nil {
		return err
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	// Redis is only used so status changes reach live dashboards.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, events will not be published", zap.Error(err))
			rdb = nil
		}
	}

	a.cfg, a.logger, a.store = cfg, logger, storage.NewStorageService(db, rdb)
	return nil
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations complete")
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List complaints, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *models.Status
			if status != "" {
				s, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				filter = &s
			}
			list, err := a.store.ListComplaints(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printComplaints(cmd, list)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only list complaints in this status")
	return cmd
}

func printComplaints(cmd *cobra.Command, list []models.Complaint) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCATEGORY\tURGENCY\tORIGIN\tCREATED")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f (%s)\t%s\t%s\n",
			c.ID, c.Status, c.Category, c.UrgencyScore, analysis.Band(c.UrgencyScore),
			c.UrgencyOrigin, c.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// advanceCmd moves a complaint one stage forward on behalf of the role that
// normally makes that move.
func (a *app) advanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <complaint_id> <status>",
		Short: "Move a complaint to its next status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ids.Valid(args[0]) {
				return fmt.Errorf("%q is not a complaint id", args[0])
			}
			to, err := models.ParseStatus(args[1])
			if err != nil {
				return err
			}
			actor := complaint.Actor{UserID: adminActorID, Role: models.RoleOfficer}
			if to == models.StatusClosed {
				actor.Role = models.RoleWorker
			}

			// Scoring is never used by Advance.
			svc := complaint.NewService(a.store, nil, a.logger)
			c, err := svc.Advance(cmd.Context(), actor, args[0], to, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "complaint %s is now %s\n", c.ID, c.Status)
			return nil
		},
	}
}

func (a *app) createStaffCmd() *cobra.Command {
	var in auth.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Register an officer or worker profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := models.ParseRole(in.Role)
			if err != nil {
				return err
			}
			if !role.Staff() {
				return fmt.Errorf("role must be officer or worker, got %s", role)
			}
			svc := auth.NewService(a.store, auth.NewTokens(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL), a.logger)
			p, err := svc.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (user id %s)\n", p.Role, p.Email, p.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Sign-in email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&in.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Role, "role", "officer", "officer or worker")
	cmd.Flags().StringVar(&in.Department, "department", "", "Department")
	cmd.Flags().StringVar(&in.Language, "language", auth.DefaultLanguage, "Notification language")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
