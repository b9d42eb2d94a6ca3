package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jgoulah/flightscraper/internal/aggregate"
	"github.com/jgoulah/flightscraper/internal/dataset"
	"github.com/jgoulah/flightscraper/internal/publisher"
	"github.com/spf13/cobra"
)

var (
	publishInput string
	publishAll   bool
	publishLimit int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the merged weekly dataset over MQTT",
	Long: `Reads the merged dataset written by 'flightscraper aggregate' and publishes each week
as a retained JSON message on <topic_prefix>/weekly/<date>. Weeks already published
to the broker are skipped unless --all is given.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishInput, "input", "", "Merged dataset, .csv or .xlsx (default from config paths)")
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Force republish all weeks (ignore published flag)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of weeks to publish (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	input := publishInput
	if input == "" {
		input = cfg.GetOutput()
	}
	table, err := dataset.ReadTable(input)
	if err != nil {
		return fmt.Errorf("reading merged dataset: %w", err)
	}

	runID := uuid.NewString()
	msgs, err := publisher.Messages(table, runID)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Printf("No weeks found in %s\n", input)
		return nil
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	pub, err := publisher.New(cfg.MQTT, cfg.GetTopicPrefix())
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	topic := cfg.GetTopicPrefix() + "/weekly"

	var pending []publisher.WeeklyMessage
	for _, m := range msgs {
		if !publishAll {
			weekEnd, err := aggregate.ParseDate(m.WeekEnd)
			if err != nil {
				return err
			}
			done, err := db.IsPublished(weekEnd, topic)
			if err != nil {
				return err
			}
			if done {
				continue
			}
		}
		pending = append(pending, m)
	}

	if len(pending) == 0 {
		fmt.Println("No unpublished weeks found")
		return nil
	}

	if publishLimit > 0 && len(pending) > publishLimit {
		pending = pending[:publishLimit]
		fmt.Printf("Limiting to %d weeks (--limit flag)\n", publishLimit)
	}

	logger := slog.Default().With(slog.String("run_id", runID))
	fmt.Printf("Publishing %d weeks...\n", len(pending))

	published := 0
	for i, m := range pending {
		fmt.Printf("[%d/%d] Publishing %s... ", i+1, len(pending), m.WeekEnd)
		if err := pub.Publish(m); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			logger.Warn("publish failed", slog.String("week_end", m.WeekEnd), slog.String("error", err.Error()))
			continue
		}

		weekEnd, _ := aggregate.ParseDate(m.WeekEnd)
		if err := db.MarkPublished(weekEnd, topic); err != nil {
			fmt.Printf("✓ (warning: failed to mark as published: %v)\n", err)
		} else {
			fmt.Printf("✓\n")
		}
		published++
	}

	printSuccess("Published %d/%d weeks to %s", published, len(pending), topic)
	return nil
}
