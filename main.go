package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/config"
	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/handlers"
	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/models"
	"github.com/duri0214/soil-analysis/services"
	"github.com/duri0214/soil-analysis/storage"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	logging.Sync()
	database.CloseDB()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:          "soil",
		Short:        "Farm soil analysis backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.yaml (default: config.yaml or config/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")

	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newImportCmd(), newAssociateCmd())
	return cmd
}

// setup loads configuration, builds the logger and connects the database.
func setup(opts rootOptions) error {
	if err := config.LoadConfig(opts.configPath); err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	level := config.AppConfig.Logging.Level
	if opts.verbose {
		level = "debug"
	}
	if level == "" {
		level = "info"
	}
	if err := logging.Init(level, config.AppConfig.Logging.Development); err != nil {
		return err
	}
	logging.L().Info("Configuration loaded",
		zap.String("port", config.AppConfig.Server.Port),
		zap.String("db_driver", config.AppConfig.Database.Driver),
		zap.String("storage_driver", config.AppConfig.Storage.Driver),
	)

	if err := database.InitDB(config.AppConfig.Database); err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := database.Migrate(ctx); err != nil {
				return err
			}
			store, err := storage.Open(ctx, config.AppConfig.Storage)
			if err != nil {
				return fmt.Errorf("error opening archive storage: %w", err)
			}

			srv := &http.Server{
				Addr:              ":" + config.AppConfig.Server.Port,
				Handler:           handlers.NewRouter(store),
				ReadTimeout:       config.AppConfig.Server.ReadTimeout,
				ReadHeaderTimeout: 10 * time.Second,
				WriteTimeout:      config.AppConfig.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logging.L().Info("Server starting", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error starting server: %w", err)
				}
				return nil
			case <-ctx.Done():
				logging.L().Info("Server shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(cmd.Context()); err != nil {
				return err
			}
			logging.L().Info("Database schema is up to date")
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	var opts services.ImportOptions

	cmd := &cobra.Command{
		Use:   "import <folder>",
		Short: "Import soil hardness CSV files found below a folder (migrates the schema first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(cmd.Context()); err != nil {
				return err
			}
			summary, err := services.ImportFolder(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d of %d files imported, %d rows, %d errors\n",
				summary.BatchID, summary.FilesImported, summary.FilesSeen, summary.RowsImported, len(summary.Errors))
			for _, e := range summary.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s/%s: %s\n", e.CsvFolder, e.CsvFile, e.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "Delete every stored measurement before importing")
	return cmd
}

func newAssociateCmd() *cobra.Command {
	var req models.RuleAssociationRequest

	cmd := &cobra.Command{
		Use:   "associate",
		Short: "Associate measurement windows with land blocks by sampling order (migrates the schema first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(cmd.Context()); err != nil {
				return err
			}
			result, err := services.AssociateByRule(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, w := range result.Windows {
				line := fmt.Sprintf("anchor %d: %s, %d/%d readings", w.Anchor, w.State, w.Assigned, w.Selected)
				if w.Warning != "" {
					line += " (warning: " + w.Warning + ")"
				}
				if w.Error != "" {
					line += " (error: " + w.Error + ")"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d measurements left unassociated\n", result.Unassociated)
			if result.Failed() {
				return errors.New("one or more windows failed")
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&req.LandLedgerID, "ledger", 0, "Land ledger id (required)")
	cmd.Flags().IntSliceVar(&req.Anchors, "anchor", nil, "First memory slot of a window, repeatable (required)")
	_ = cmd.MarkFlagRequired("ledger")
	_ = cmd.MarkFlagRequired("anchor")
	return cmd
}
