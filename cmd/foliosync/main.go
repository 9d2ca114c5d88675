package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/foliolabs/foliosync/internal/backup"
	"github.com/foliolabs/foliosync/internal/config"
	"github.com/foliolabs/foliosync/internal/jobs"
	"github.com/foliolabs/foliosync/internal/logger"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/process"
	"github.com/foliolabs/foliosync/internal/services"
	"github.com/foliolabs/foliosync/internal/storage"
	"github.com/foliolabs/foliosync/internal/tui"
	"github.com/foliolabs/foliosync/internal/utils"
)

func buildConfig(port, apiReadyTimeout int, binPath, dataDir string) *config.Config {
	cfg := config.NewConfig()
	cfg.LoadFromEnvironment()

	if port != 0 {
		cfg.Port = port
	}
	if apiReadyTimeout != 0 {
		cfg.APIReadyTimeout = apiReadyTimeout
	}
	if binPath != "" {
		cfg.BinPath = binPath
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	cfg.SetBaseURL()
	return cfg
}

// runJob starts one tracked job and blocks until its outcome arrives.
func runJob(svc *services.DashboardService, start func() (<-chan jobs.Outcome, error)) error {
	defer svc.Cleanup()

	outcomes, err := start()
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			logger.Warn("Operation skipped: %v", err)
			return nil
		}
		return err
	}

	outcome, ok := <-outcomes
	if !ok {
		return fmt.Errorf("polling stopped before the job finished")
	}

	switch outcome.State {
	case jobs.OutcomeFinished:
		logger.Info("Job finished successfully")
		return nil
	case jobs.OutcomeExpired:
		return fmt.Errorf("job expired on the backend, please retry")
	default:
		return fmt.Errorf("job failed: %s", outcome.Err)
	}
}

func main() {
	logger.Init()
	utils.LoadEnvironment()

	var (
		port            int
		binPath         string
		dataDir         string
		apiReadyTimeout int
	)

	rootCmd := &cobra.Command{
		Use:   "foliosync",
		Short: "A CLI companion for the folio dashboard backend",
		Long:  `foliosync submits statement-processing jobs to the folio dashboard backend, tracks them to completion and keeps statement and price state reconciled.`,
	}

	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "Port the folio-core backend listens on")
	rootCmd.PersistentFlags().StringVarP(&binPath, "bin-path", "b", "", "Path to the folio-core binary")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "", "", "Directory where folio-core's data resides")
	rootCmd.PersistentFlags().IntVarP(&apiReadyTimeout, "api-ready-timeout", "t", 0, "Maximum attempts to check API readiness")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the interactive dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitFileOnly(); err != nil {
				return err
			}
			defer logger.Close()

			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)
			svc := services.NewDashboardService(cfg)
			defer svc.Cleanup()

			account, _ := cmd.Flags().GetString("account")
			date, _ := cmd.Flags().GetString("date")

			return tui.RunDashboard(svc, models.PositionFilters{Account: account, Date: date})
		},
	}
	watchCmd.Flags().String("account", "", "Filter positions by account")
	watchCmd.Flags().String("date", "", "Position snapshot date (YYYY-MM-DD)")

	processCmd := &cobra.Command{
		Use:   "process <statement-id>",
		Short: "Process a statement and wait for the job to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid statement id %q", args[0])
			}

			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)
			svc := services.NewDashboardService(cfg)

			return runJob(svc, func() (<-chan jobs.Outcome, error) {
				return svc.Statements().ProcessStatement(svc.Context(), id)
			})
		},
	}

	reprocessCmd := &cobra.Command{
		Use:   "reprocess <statement-id>",
		Short: "Reprocess a statement and wait for the job to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid statement id %q", args[0])
			}

			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)
			svc := services.NewDashboardService(cfg)

			return runJob(svc, func() (<-chan jobs.Outcome, error) {
				return svc.Statements().ReprocessStatement(svc.Context(), id)
			})
		},
	}

	var backupFirst bool
	reprocessAllCmd := &cobra.Command{
		Use:   "reprocess-all",
		Short: "Reprocess every statement",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)

			if backupFirst {
				backupFile, err := backup.CreateBackup(cfg.DataDir, "")
				if err != nil {
					return fmt.Errorf("refusing to reprocess without a backup: %w", err)
				}
				logger.Info("Backup created before bulk reprocess: %s", backupFile)
			}

			svc := services.NewDashboardService(cfg)

			return runJob(svc, func() (<-chan jobs.Outcome, error) {
				return svc.Statements().ReprocessAll(svc.Context())
			})
		},
	}
	reprocessAllCmd.Flags().BoolVar(&backupFirst, "backup", false, "Create a data backup before reprocessing")

	var accountID int64
	reassignCmd := &cobra.Command{
		Use:   "reassign <statement-id>",
		Short: "Move a statement to another account and reprocess it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid statement id %q", args[0])
			}
			if accountID == 0 {
				return fmt.Errorf("--account-id is required")
			}

			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)
			svc := services.NewDashboardService(cfg)

			return runJob(svc, func() (<-chan jobs.Outcome, error) {
				return svc.Statements().ReassignAccount(svc.Context(), id, accountID)
			})
		},
	}
	reassignCmd.Flags().Int64Var(&accountID, "account-id", 0, "Target account id")

	convertCmd := &cobra.Command{
		Use:   "convert <statement-id>",
		Short: "Convert a statement's entries into transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid statement id %q", args[0])
			}

			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)
			svc := services.NewDashboardService(cfg)

			return runJob(svc, func() (<-chan jobs.Outcome, error) {
				return svc.Statements().ConvertTransactions(svc.Context(), id)
			})
		},
	}

	var uploadAccount string
	uploadCmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a statement file and track its processing job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if uploadAccount == "" {
				return fmt.Errorf("--account is required")
			}

			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)
			svc := services.NewDashboardService(cfg)

			err := runJob(svc, func() (<-chan jobs.Outcome, error) {
				return svc.Statements().UploadStatement(svc.Context(), args[0], uploadAccount)
			})
			if err != nil {
				return err
			}

			if saveErr := storage.SaveLastRefresh(uploadAccount, time.Now().Unix()); saveErr != nil {
				logger.Warn("Failed to record refresh timestamp: %v", saveErr)
			}
			return nil
		},
	}
	uploadCmd.Flags().StringVar(&uploadAccount, "account", "", "Account the statement belongs to")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the folio-core backend and wait for it to exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)
			if err := cfg.Validate(); err != nil {
				return err
			}

			backend, err := process.StartBackend(cfg.BinPath, cfg.Port, cfg.APIReadyTimeout, cfg.DataDir)
			if err != nil {
				return fmt.Errorf("failed to start folio-core: %w", err)
			}

			return backend.WaitForExit()
		},
	}

	var backupDir string
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the dashboard data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildConfig(port, apiReadyTimeout, binPath, dataDir)

			backupFile, err := backup.CreateBackup(cfg.DataDir, backupDir)
			if err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}

			logger.Info("Backup created successfully: %s", backupFile)
			return nil
		},
	}
	backupCmd.Flags().StringVarP(&backupDir, "backup-dir", "", "", "Directory where the backup will be stored (default: ~/backups)")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(reprocessCmd)
	rootCmd.AddCommand(reprocessAllCmd)
	rootCmd.AddCommand(reassignCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(backupCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}
