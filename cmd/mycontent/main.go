package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/mycontent/internal/config"
	"github.com/xxxsen/mycontent/internal/dataset"
	"github.com/xxxsen/mycontent/internal/handler"
	"github.com/xxxsen/mycontent/internal/job"
	"github.com/xxxsen/mycontent/internal/middleware"
	"github.com/xxxsen/mycontent/internal/repo"
	"github.com/xxxsen/mycontent/internal/schedule"
	"github.com/xxxsen/mycontent/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "mycontent",
		Short:        "mycontent article recommendation server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(
		newRunCmd(&configPath),
		newRecommendCmd(&configPath),
		newUsersCmd(&configPath),
		newImportCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

// loadService performs the cold load: everything the service reads afterwards
// is immutable.
func loadService(ctx context.Context, cfg *config.Config) (*service.RecommendService, error) {
	loader, err := dataset.New(cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("init dataset loader: %w", err)
	}
	ds, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	engine, err := service.BuildEngine(ds, cfg.Recommend.DedupClicks)
	if err != nil {
		return nil, err
	}
	svc := service.NewRecommendService(engine, ds.Articles, service.RecommendOptions{
		DefaultTopK: cfg.Recommend.DefaultTopK,
		MaxTopK:     cfg.Recommend.MaxTopK,
		CacheSize:   cfg.Recommend.CacheSize,
		CacheTTL:    time.Duration(cfg.Recommend.CacheTTLSeconds) * time.Second,
	})
	st := svc.Stats()
	logutil.GetLogger(ctx).Info("recommendation engine ready",
		zap.Int("users", st.Users),
		zap.Int("embeddings", st.Embeddings),
		zap.Int("dim", st.Dim),
		zap.Bool("dedup_clicks", cfg.Recommend.DedupClicks),
	)
	return svc, nil
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run recommendation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			svc, err := loadService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return runServer(cfg, svc)
		},
	}
}

func runServer(cfg *config.Config, svc *service.RecommendService) error {
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	deps := handler.RouterDeps{
		Recommend: handler.NewRecommendHandler(svc),
		Catalog:   handler.NewCatalogHandler(svc),
		RateLimit: time.Duration(cfg.RateLimitMs) * time.Millisecond,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.StatsCron != "" {
		if err := scheduler.AddJob(job.NewCatalogStatsJob(svc), cfg.StatsCron); err != nil {
			return fmt.Errorf("schedule stats job: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func newRecommendCmd(configPath *string) *cobra.Command {
	var (
		userID int64
		topK   int
		order  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "print recommendations for one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("user") {
				return fmt.Errorf("--user is required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			svc, err := loadService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return printRecommendation(cmd.Context(), cmd.OutOrStdout(), svc, userID, topK, order, format)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of recommendations (default from config)")
	cmd.Flags().StringVar(&order, "order", service.OrderRecent, "presentation order: recent or score")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, csv or json")
	return cmd
}

func newUsersCmd(configPath *string) *cobra.Command {
	var (
		offset int
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "users",
		Short: "list users with click history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			svc, err := loadService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			users, total := svc.ListUsers(cmd.Context(), offset, limit)
			out := cmd.OutOrStdout()
			for _, id := range users {
				fmt.Fprintln(out, id)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), renderNote(fmt.Sprintf("%d of %d users", len(users), total)))
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "skip the first n users")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum users to print (0 for all)")
	return cmd
}

func newImportCmd(configPath *string) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "copy the configured dataset into postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--dsn is required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			loader, err := dataset.New(cfg.Dataset)
			if err != nil {
				return fmt.Errorf("init dataset loader: %w", err)
			}
			ds, err := loader.Load(ctx)
			if err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}
			// validate before touching the target database
			if _, err := service.BuildEngine(ds, false); err != nil {
				return err
			}
			db, err := repo.Open(config.DatabaseConfig{DSN: dsn})
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()
			if err := repo.ApplyMigrations(db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return dataset.Import(ctx, db, ds)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres connection string")
	return cmd
}
