package cli

import (
	"fmt"

	"github.com/axellelanca/portfolio/cmd"
	"github.com/axellelanca/portfolio/internal/database"
	"gorm.io/gorm"
)

// openDatabase ouvre la base configurée et applique les migrations, pour que
// les commandes de lecture fonctionnent aussi sur une base neuve.
func openDatabase() (*gorm.DB, error) {
	db, err := database.Open(cmd.Cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("échec de la connexion à la base de données : %w", err)
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("échec de la migration de la base de données : %w", err)
	}
	return db, nil
}
