package cmd

import (
	"fmt"
	log "log/slog"
	"os"

	"github.com/axellelanca/portfolio/internal/config"
	"github.com/axellelanca/portfolio/internal/logger"
	"github.com/spf13/cobra"
)

// Cfg contient la configuration chargée.
// Elle est accessible à toutes les commandes Cobra de l'application.
var Cfg *config.Config

// RootCmd est la commande de base de l'application.
// Les autres commandes (run-server, migrate, stats, audit, messages) s'y ajoutent comme sous-commandes.
var RootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Backend du portfolio : vues et likes des projets",
	Long: `Backend du site portfolio. Il enregistre les vues et les likes des projets,
stocke les messages du formulaire de contact et vérifie les agrégats
par rapport au journal d'interactions.`,
	SilenceUsage: true,
}

// Execute est le point d'entrée de l'application Cobra, appelé depuis 'main.go'.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur lors de l'exécution de la commande : %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Configuration et logger sont prêts avant l'exécution de toute commande
	cobra.OnInitialize(initConfig)

	// Les sous-commandes s'enregistrent via leur propre init(),
	// main.go importe leurs packages pour cet effet.
}

// initConfig charge la configuration et installe le logger.
func initConfig() {
	var err error

	Cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Échec du chargement de la configuration : %v\n", err)
		os.Exit(1)
	}

	logger.Init(Cfg.Log.Level, Cfg.Log.Format)
	log.Debug("Logger initialisé", "level", Cfg.Log.Level, "format", Cfg.Log.Format)
}
