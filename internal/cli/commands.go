package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ken-allen-3/boardgameborrow/game"
	"github.com/ken-allen-3/boardgameborrow/refresh"
)

var searchPage int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search games by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.close()

		page, err := app.service.SearchGames(cmd.Context(), strings.Join(args, " "), searchPage)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(page)
		}
		printGames(page.Items)
		if page.HasMore {
			fmt.Printf("more results: --page %d\n", searchPage+1)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one game by its identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.close()

		data, err := app.service.GameByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(data)
		}
		printGames([]game.Data{data})
		return nil
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Show the curated popular games",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.close()

		games, err := app.service.PopularGames(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(games)
		}
		printGames(games)
		return nil
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings <category>",
	Short: "Show this month's ranked games for a category",
	Long: "Show this month's ranked games for a category.\n\nCategories: " +
		categoryList(),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.close()

		games, err := app.service.CategoryRankings(cmd.Context(), game.Category(args[0]))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(games)
		}
		printGames(games)
		return nil
	},
}

var refreshThreshold int

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the monthly rankings documents",
	Long: "Rebuild the monthly rankings documents for every category, " +
		"preserving games kept alive by user demand. Scheduled as '" +
		refresh.Schedule + "' in production.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.close()

		job := refresh.NewJob(app.service, app.ranks,
			refresh.WithThreshold(refreshThreshold),
			refresh.WithLogger(app.logger),
		)
		report, err := job.Run(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(report)
		}
		for _, category := range game.Categories() {
			result := report.Categories[category]
			if result.Err != nil {
				fmt.Printf("%-10s failed: %v\n", category, result.Err)
				continue
			}
			fmt.Printf("%-10s %d games (%d preserved)\n",
				category, result.TotalGames, result.PreservedGames)
		}
		if report.Failed() {
			return fmt.Errorf("refresh run %s finished with failures", report.RunID)
		}
		return nil
	},
}

func categoryList() string {
	names := make([]string, 0, len(game.Categories()))
	for _, category := range game.Categories() {
		names = append(names, string(category))
	}
	return strings.Join(names, ", ")
}

func printGames(games []game.Data) {
	for _, g := range games {
		rank := "unranked"
		if g.OverallRank > 0 {
			rank = fmt.Sprintf("#%d", g.OverallRank)
		}
		fmt.Printf("%-8s %-40s %s\n", g.ID, g.Name, rank)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page (pages of 10)")
	refreshCmd.Flags().IntVar(&refreshThreshold, "threshold", refresh.DefaultUsageThreshold,
		"Usage count at which a game's cached data is preserved")

	rootCmd.AddCommand(searchCmd, getCmd, popularCmd, rankingsCmd, refreshCmd)
}
