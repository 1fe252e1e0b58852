package cli

import (
	"context"
	"fmt"

	"github.com/axellelanca/portfolio/cmd"
	"github.com/axellelanca/portfolio/internal/content"
	"github.com/axellelanca/portfolio/internal/database"
	"github.com/axellelanca/portfolio/internal/monitor"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/spf13/cobra"
)

var auditRepair bool

// AuditCmd représente la commande 'audit' : un passage unique de l'audit de cohérence.
var AuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Vérifie que les agrégats correspondent au journal d'interactions",
	Long: `Recompte les vues et likes acceptés de chaque slug à partir du journal
d'interactions et les compare aux compteurs stockés. Avec --repair, les
compteurs divergents sont recalculés à partir du journal.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close(db)

		catalog, err := content.LoadCatalog(cmd.Cfg.Content.Dir)
		if err != nil {
			return err
		}

		auditor := monitor.NewConsistencyMonitor(repository.NewMetricRepository(db), catalog, cmd.Cfg.Monitor.Workers, auditRepair)

		report, err := auditor.Audit(context.Background())
		if err != nil {
			return err
		}

		// Afficher le rapport
		fmt.Printf("Slugs vérifiés : %d\n", report.Checked)
		for _, d := range report.Drifts {
			fmt.Printf("  écart %-30s %-5s agrégat=%d journal=%d\n", d.Slug, d.Kind, d.AggregateSays, d.LogSays)
		}
		if len(report.Drifts) == 0 {
			fmt.Println("Tous les agrégats correspondent au journal.")
		}
		if auditRepair {
			fmt.Printf("Agrégats réparés : %d\n", report.Repaired)
		}
		for _, slug := range report.Orphans {
			fmt.Printf("  hors catalogue : %s\n", slug)
		}
		return nil
	},
}

func init() {
	AuditCmd.Flags().BoolVar(&auditRepair, "repair", false, "recalcule les agrégats divergents à partir du journal")
	cmd.RootCmd.AddCommand(AuditCmd)
}
