package cli

import (
	"fmt"

	"github.com/axellelanca/portfolio/cmd"
	"github.com/axellelanca/portfolio/internal/database"
	"github.com/spf13/cobra"
)

// MigrateCmd représente la commande 'migrate'.
// Elle crée ou met à jour le schéma de la base de données.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Exécute les migrations pour créer ou mettre à jour les tables.",
	Long: `Cette commande se connecte à la base configurée (SQLite ou MySQL)
et exécute les migrations automatiques de GORM pour créer les tables
'interactions', 'metrics' et 'messages' ainsi que leurs index uniques.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := database.Open(cmd.Cfg.Database)
		if err != nil {
			return fmt.Errorf("échec de la connexion à la base de données : %w", err)
		}
		defer database.Close(db)

		// Crée les tables à partir des modèles, ajoute colonnes et index manquants
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("échec de la migration de la base de données : %w", err)
		}

		fmt.Println("Migrations de la base de données exécutées avec succès.")
		return nil
	},
}

func init() {
	// Enregistre la commande auprès de la commande racine
	cmd.RootCmd.AddCommand(MigrateCmd)
}
