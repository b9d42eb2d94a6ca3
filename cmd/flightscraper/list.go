package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listColumn string
)

var listCmd = &cobra.Command{
	Use:       "list [source]",
	Short:     "List stored data",
	Long:      `Displays stored TSA passenger counts or Google Trends samples from the database.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tsa", "trends"},
	RunE:      runList,
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Show only the most recent N rows (0 = all)")
	listCmd.Flags().StringVar(&listColumn, "column", "", "Filter trends by column (e.g. flight_status)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var headers []string
	var rows [][]string
	var footer string

	switch args[0] {
	case "tsa":
		data, err := db.ListPassengerVolumes()
		if err != nil {
			return fmt.Errorf("listing passenger volumes: %w", err)
		}

		var total int64
		for _, r := range data {
			total += r.Volume
		}

		headers = []string{"Date", "Passengers", "Source"}
		for _, r := range data {
			rows = append(rows, []string{r.Date.Format("2006-01-02"), humanize.Comma(r.Volume), r.Source})
		}
		footer = fmt.Sprintf("Total: %s passengers (%d days)", humanize.Comma(total), len(data))

	case "trends":
		data, err := db.ListTrendPoints(listColumn)
		if err != nil {
			return fmt.Errorf("listing trend points: %w", err)
		}

		headers = []string{"Date", "Column", "Keyword", "Value", "Partial"}
		for _, r := range data {
			partial := ""
			if r.IsPartial {
				partial = "yes"
			}
			rows = append(rows, []string{
				r.Date.Format("2006-01-02"),
				r.Column,
				r.Keyword,
				strconv.FormatFloat(r.Value, 'f', -1, 64),
				partial,
			})
		}

	default:
		return fmt.Errorf("unknown source: %s (available: tsa, trends)", args[0])
	}

	if len(rows) == 0 {
		fmt.Printf("No data found for %s\n", args[0])
		return nil
	}

	if listLimit > 0 && len(rows) > listLimit {
		rows = rows[len(rows)-listLimit:]
	}

	if err := renderTable(os.Stdout, headers, rows); err != nil {
		return err
	}
	if footer != "" {
		fmt.Println(footer)
	}
	return nil
}
