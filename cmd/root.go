package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"meetflix-cli/config"
	"meetflix-cli/logx"
	"meetflix-cli/service"
	"meetflix-cli/tui"
)

const version = "v0.1.0"

var (
	flagMovie  int
	flagDate   string
	flagAPIURL string
	flagUser   int
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Meetflix CLI",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Meetflix CLI " + version)
	},
}

var rootCmd = &cobra.Command{
	Use:   "meetflix",
	Short: "Meetflix ticket storefront",
	Long:  `Pick a movie, date, showtime, theater and seats, all from the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := logx.New(cfg.Debug)
		defer logger.Sync()

		client := service.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, logger)
		if flagAPIURL != "" {
			client.SetBaseURL(flagAPIURL)
		} else if cfg.APIBaseURL != "" {
			client.SetBaseURL(cfg.APIBaseURL)
		}

		userID := cfg.UserID
		if flagUser > 0 {
			userID = flagUser
		}

		opts := tui.Options{
			MovieID: flagMovie,
			UserID:  userID,
			Logger:  logger,
		}
		if flagDate != "" {
			date, err := time.ParseInLocation(time.DateOnly, flagDate, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", flagDate)
			}
			opts.Date = date
		}

		program := tea.NewProgram(tui.New(client, opts), tea.WithAltScreen())
		final, err := program.Run()
		if err != nil {
			return err
		}

		if receipt, ok := tui.FinalReceipt(final); ok {
			printReceipt(receipt)
		}
		return nil
	},
}

func printReceipt(receipt tui.Receipt) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Order #%d", receipt.OrderId))
	t.AppendRows([]table.Row{
		{"Movie", receipt.Movie},
		{"Theater", receipt.Theater},
		{"Room", receipt.Room},
		{"Showtime", receipt.Showtime},
		{"Seats", strings.Join(receipt.Seats, ", ")},
	})
	if receipt.Customer != "" {
		t.AppendRow(table.Row{"Customer", receipt.Customer})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func Execute() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Flags().IntVar(&flagMovie, "movie", 0, "movie id to jump straight to date selection")
	rootCmd.Flags().StringVar(&flagDate, "date", "", "preselect a date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&flagAPIURL, "api-url", "", "storefront API base URL")
	rootCmd.Flags().IntVar(&flagUser, "user", 0, "user id whose profile prefills checkout")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
