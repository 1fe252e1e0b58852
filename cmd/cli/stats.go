package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/axellelanca/portfolio/cmd"
	"github.com/axellelanca/portfolio/internal/content"
	"github.com/axellelanca/portfolio/internal/database"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/axellelanca/portfolio/internal/services"
	"github.com/spf13/cobra"
)

var statsAll bool

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [slug]",
	Short: "Affiche les vues et likes d'un projet",
	Long: `Affiche les compteurs du slug donné, ou avec --all ceux de tous les
projets du catalogue et de tout slug ayant déjà reçu une interaction.`,
	Args: func(c *cobra.Command, args []string) error {
		if statsAll {
			return cobra.NoArgs(c, args)
		}
		return cobra.ExactArgs(1)(c, args)
	},
	RunE: runStats,
}

func init() {
	StatsCmd.Flags().BoolVar(&statsAll, "all", false, "liste tous les slugs connus")
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(_ *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close(db)

	metricsService := services.NewMetricsService(
		repository.NewInteractionRepository(db),
		repository.NewMetricRepository(db),
		services.WithStoreTimeout(cmd.Cfg.StoreTimeout()))
	ctx := context.Background()

	if !statsAll {
		slug := args[0]
		counts, err := metricsService.GetMetrics(ctx, slug)
		if err != nil {
			return err
		}
		fmt.Printf("Statistiques pour le projet : %s\n", slug)
		fmt.Printf("Vues : %d\n", counts.Views)
		fmt.Printf("Likes : %d\n", counts.Likes)
		return nil
	}

	catalog, err := content.LoadCatalog(cmd.Cfg.Content.Dir)
	if err != nil {
		return err
	}
	all, err := metricsService.AllMetrics(ctx)
	if err != nil {
		return err
	}

	// Catalogue d'abord (plus récent en premier), puis les slugs hors catalogue
	var rows []string
	for _, p := range catalog.All() {
		rows = append(rows, p.Slug)
	}
	var extra []string
	for slug := range all {
		if !catalog.Has(slug) {
			extra = append(extra, slug)
		}
	}
	sort.Strings(extra)
	rows = append(rows, extra...)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tVUES\tLIKES\tCATALOGUE")
	for _, slug := range rows {
		c := all[slug]
		inCatalog := "oui"
		if !catalog.Has(slug) {
			inCatalog = "non"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", slug, c.Views, c.Likes, inCatalog)
	}
	return w.Flush()
}
