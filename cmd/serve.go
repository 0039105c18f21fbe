package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/numisight/numisight/internal/api"
	"github.com/numisight/numisight/internal/catalog"
	"github.com/numisight/numisight/internal/history"
	"github.com/numisight/numisight/internal/server"
	"github.com/numisight/numisight/internal/site"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the coin identification server",
	Long:  `Starts the HTTP server with the identification page, /api/search, /api/ai-identify, catalog statistics, request history and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		catalogStore, err := newCatalogStore(cfg, database)
		if err != nil {
			return err
		}
		historyStore := history.NewStore(database)

		handler := api.NewHandler(
			catalogStore,
			newWebSearcher(cfg, log),
			newClassifier(cfg, log),
			historyStore,
			api.Options{
				QuerySuffix:      cfg.WebSearch.QuerySuffix,
				MaxUploadBytes:   int64(cfg.Server.MaxUploadMB) << 20,
				SearchOnIdentify: cfg.Catalog.SearchOnIdentify,
			},
			log,
		)

		pageSite, err := site.New(site.Options{StaticDir: cfg.Server.StaticDir}, log)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Host:     cfg.Server.Host,
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, log)

		// Register all feature routes.
		r := srv.Router()
		api.RegisterRoutes(r, handler)
		catalog.RegisterRoutes(r, catalogStore)
		history.RegisterRoutes(r, historyStore)
		site.RegisterRoutes(r, pageSite)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("error during shutdown", zap.Error(err))
			}
		}()

		log.Info("starting numisight",
			zap.String("version", Version),
			zap.String("addr", srv.Addr()),
			zap.String("database", database.Path()),
			zap.Strings("periods", cfg.Catalog.Periods),
			zap.Strings("engines", cfg.WebSearch.Engines),
		)
		fmt.Fprintf(os.Stderr, "numisight %s listening on http://%s\n", Version, srv.Addr())

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (overrides server.port)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to bind (overrides server.host)")
	rootCmd.AddCommand(serveCmd)
}
