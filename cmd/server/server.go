package server

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/axellelanca/portfolio/cmd"
	"github.com/axellelanca/portfolio/internal/api"
	"github.com/axellelanca/portfolio/internal/content"
	"github.com/axellelanca/portfolio/internal/database"
	"github.com/axellelanca/portfolio/internal/monitor"
	"github.com/axellelanca/portfolio/internal/ratelimit"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/axellelanca/portfolio/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API des métriques du portfolio et l'audit de cohérence.",
	Long: `Cette commande initialise la base de données, charge le catalogue de projets,
configure les APIs, démarre l'audit périodique des agrégats,
puis lance le serveur HTTP.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg := cmd.Cfg

		// Initialiser la base de données
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("échec de la connexion à la base de données : %w", err)
		}
		defer database.Close(db)

		// Migration automatique des modèles
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("échec de la migration de la base de données : %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}

		// Initialiser les repositories
		interactionRepo := repository.NewInteractionRepository(db)
		metricRepo := repository.NewMetricRepository(db)
		messageRepo := repository.NewMessageRepository(db)
		log.Info("Repositories initialisés.")

		// Initialiser les services métiers
		metricsService := services.NewMetricsService(interactionRepo, metricRepo,
			services.WithViewWindow(cfg.ViewWindow()),
			services.WithStoreTimeout(cfg.StoreTimeout()))

		contactLimiter := ratelimit.New(cfg.Contact.RequestsPerMinute, cfg.Contact.Burst, time.Hour)
		defer contactLimiter.Stop()
		contactService := services.NewContactService(messageRepo, contactLimiter, cfg.StoreTimeout())
		log.Info("Services métiers initialisés.")

		// Catalogue des projets, en lecture seule
		catalog, err := content.LoadCatalog(cfg.Content.Dir)
		if err != nil {
			return fmt.Errorf("échec du chargement du catalogue : %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Initialiser et lancer l'audit de cohérence des agrégats
		if cfg.Monitor.Enabled {
			auditor := monitor.NewConsistencyMonitor(metricRepo, catalog, cfg.Monitor.Workers, cfg.Monitor.Repair)
			if err := auditor.Start(ctx, cfg.Monitor.Schedule); err != nil {
				return err
			}
			defer auditor.Stop()
		}

		// Configurer le routeur Gin et les handlers API.
		gin.SetMode(cfg.Server.Mode)
		router := gin.New()
		router.Use(gin.Recovery(), api.TraceMiddleware(), api.AccessLogMiddleware())
		if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
			return fmt.Errorf("trusted_proxies invalides : %w", err)
		}
		api.SetupRoutes(router, api.Dependencies{
			Metrics: metricsService,
			Contact: contactService,
			Catalog: catalog,
			DB:      sqlDB,
		})
		log.Info("Routes API configurées.")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:              serverAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Démarrer le serveur dans une goroutine pour ne pas bloquer.
		serveErr := make(chan error, 1)
		go func() {
			log.Info("Démarrage du serveur", "addr", serverAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		// Bloquer jusqu'à un signal d'arrêt (Ctrl+C, SIGTERM) ou une erreur d'écoute.
		select {
		case <-ctx.Done():
			log.Info("Signal d'arrêt reçu. Arrêt du serveur...")
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("échec du démarrage du serveur : %w", err)
			}
		}

		// Arrêt propre du serveur HTTP avec un timeout.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Arrêt forcé du serveur", "err", err)
		}

		log.Info("Serveur arrêté proprement.")
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
