package cli

import (
	"context"
	"fmt"

	"github.com/axellelanca/portfolio/cmd"
	"github.com/axellelanca/portfolio/internal/database"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/axellelanca/portfolio/internal/services"
	"github.com/spf13/cobra"
)

var messagesLimit int

// MessagesCmd représente la commande 'messages' : les derniers messages du formulaire de contact.
var MessagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Liste les messages de contact reçus, du plus récent au plus ancien",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close(db)

		contactService := services.NewContactService(repository.NewMessageRepository(db), nil, cmd.Cfg.StoreTimeout())
		messages, err := contactService.Recent(context.Background(), messagesLimit)
		if err != nil {
			return err
		}

		if len(messages) == 0 {
			fmt.Println("Aucun message.")
			return nil
		}
		for _, m := range messages {
			fmt.Printf("[%s] %s <%s> (%s)\n%s\n\n", m.CreatedAt.Format("2006-01-02 15:04:05"), m.Name, m.Email, m.ID, m.Body)
		}
		return nil
	},
}

func init() {
	MessagesCmd.Flags().IntVarP(&messagesLimit, "limit", "n", 20, "nombre de messages à afficher")
	cmd.RootCmd.AddCommand(MessagesCmd)
}
