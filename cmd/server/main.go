package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gymhub/internal/adapters/email"
	web "gymhub/internal/adapters/http"
	"gymhub/internal/adapters/http/perf"
	"gymhub/internal/adapters/photos"
	"gymhub/internal/adapters/storage"
	accountStore "gymhub/internal/adapters/storage/account"
	attendanceStore "gymhub/internal/adapters/storage/attendance"
	auditStore "gymhub/internal/adapters/storage/audit"
	branchStore "gymhub/internal/adapters/storage/branch"
	customerStore "gymhub/internal/adapters/storage/customer"
	featureFlagStore "gymhub/internal/adapters/storage/featureflag"
	reportStore "gymhub/internal/adapters/storage/report"
	scheduleStore "gymhub/internal/adapters/storage/schedule"
	trainerStore "gymhub/internal/adapters/storage/trainer"
	"gymhub/internal/application/orchestrators"
	"gymhub/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	var cfg config.Config

	root := &cobra.Command{
		Use:          "gymhub",
		Short:        "Multi-branch gym management server",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			loaded, err := config.Load(os.Getenv)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading GYM_* variables")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate, seed the super admin and serve HTTP",
			RunE:  func(cmd *cobra.Command, args []string) error { return serve(cmd.Context(), cfg) },
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending schema migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDB(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				log.Printf("schema at version %d", storage.LatestSchemaVersion())
				return nil
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Run the auto-checkout sweep for every branch once",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withAttendance(cmd.Context(), cfg, func(ctx context.Context, deps orchestrators.AttendanceDeps) error {
					closed, err := orchestrators.ExecuteAutoCheckoutAll(ctx, orchestrators.SystemActorFor(), deps)
					log.Printf("auto checked-out %d open visit(s)", closed)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Delete closed attendance records past the retention period",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withAttendance(cmd.Context(), cfg, func(ctx context.Context, deps orchestrators.AttendanceDeps) error {
					n, err := orchestrators.ExecuteCleanupAttendance(ctx, "", orchestrators.SystemActorFor(), deps)
					log.Printf("deleted %d attendance record(s)", n)
					return err
				})
			},
		},
	)
	return root
}

// openDB opens and migrates the configured database.
func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := storage.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func newStores(db storage.SQLDB) *web.Stores {
	return &web.Stores{
		AccountStore:     accountStore.NewSQLiteStore(db),
		BranchStore:      branchStore.NewSQLiteStore(db),
		FeatureFlagStore: featureFlagStore.NewSQLiteStore(db),
		AuditStore:       auditStore.NewSQLiteStore(db),
		CustomerStore:    customerStore.NewSQLiteStore(db),
		TrainerStore:     trainerStore.NewSQLiteStore(db),
		AttendanceStore:  attendanceStore.NewSQLiteStore(db),
		ScheduleStore:    scheduleStore.NewSQLiteStore(db),
		ReportStore:      reportStore.NewSQLiteStore(db),
	}
}

func attendanceDeps(s *web.Stores, counter orchestrators.EventCounter) orchestrators.AttendanceDeps {
	return orchestrators.AttendanceDeps{
		AttendanceStore: s.AttendanceStore,
		CustomerStore:   s.CustomerStore,
		BranchStore:     s.BranchStore,
		Audit:           s.AuditStore,
		Counter:         counter,
	}
}

// withAttendance runs a one-shot attendance job against the configured database.
func withAttendance(ctx context.Context, cfg config.Config, run func(context.Context, orchestrators.AttendanceDeps) error) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return run(ctx, attendanceDeps(newStores(db), nil))
}

func serve(ctx context.Context, cfg config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	collector := perf.NewCollector(perf.DefaultRingSize)
	stores := newStores(storage.NewTimedDB(db, collector, cfg.SlowQuery))

	created, err := orchestrators.ExecuteSeedSuperAdmin(ctx, orchestrators.SeedSuperAdminInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}, orchestrators.SeedSuperAdminDeps{AccountStore: stores.AccountStore})
	if err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}
	if !created && cfg.AdminEmail == "" {
		slog.Info("config_event", "event", "super_admin_seed_skipped", "hint", "set GYM_ADMIN_EMAIL and GYM_ADMIN_PASSWORD on first start")
	}

	if cfg.ResendKey == "" && cfg.Production() {
		slog.Warn("config_event", "event", "email_disabled", "hint", "GYM_RESEND_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopSweep := orchestrators.StartAutoCheckoutSweep(ctx, attendanceDeps(stores, collector),
		orchestrators.SweepConfig{Interval: cfg.AutoCheckoutInterval})
	defer stopSweep()

	handler := web.NewMux(stores, web.Config{
		Collector: collector,
		Photos:    photos.NewStore(cfg.UploadDir),
		Email:     email.New(cfg.ResendKey, cfg.ResendFrom),
		CSRFKey:   cfg.CSRFKey,
		Secure:    cfg.Production(),
		BaseURL:   cfg.BaseURL,
		RateLimit: cfg.RateLimit,

		SlowRequest: cfg.SlowRequest,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("GymHub %s starting on %s (env=%s, schema=%d)", version, cfg.Addr, cfg.Env, storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Println("shutting down")
	return srv.Shutdown(shutdownCtx)
}
