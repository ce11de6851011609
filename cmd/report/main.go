package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/dashboard"
	"github.com/social-listening/mentions-dashboard/internal/ingest"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/social-listening/mentions-dashboard/internal/notifications"
	"github.com/social-listening/mentions-dashboard/internal/reporting"
	"github.com/social-listening/mentions-dashboard/internal/sources"
	"github.com/social-listening/mentions-dashboard/internal/storage"
)

// terminalNotifier prints digests instead of sending them
type terminalNotifier struct{}

var _ notifications.NotificationInterface = (*terminalNotifier)(nil)

func (t *terminalNotifier) SendReport(_ context.Context, report *models.Report) error {
	kpis := report.KPIs

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("SOCIAL LISTENING DIGEST")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Period:     %s\n", report.Period)
	fmt.Printf("Generated:  %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("Mentions:   %d of %d match the filters\n", report.TotalMentions, report.TotalRecords)

	fmt.Println("\nKey metrics:")
	fmt.Printf("   %-22s %s\n", "Total mentions", metric(kpis.TotalMentions, 0))
	fmt.Printf("   %-22s %s\n", "Total engagement", metric(kpis.TotalEngagement, 0))
	fmt.Printf("   %-22s %s\n", "Avg engagement", metric(kpis.AvgEngagementRate, 1))
	fmt.Printf("   %-22s %.0f/100\n", "Sentiment score", kpis.SentimentScore.Value)

	fmt.Println("\nSentiment:")
	for _, slice := range report.Charts.SentimentDistribution {
		fmt.Printf("   %-10s %4d (%.1f%%)\n", slice.Name, slice.Count, slice.Percentage)
	}

	fmt.Println("\nChannels:")
	for _, channel := range report.Charts.ChannelPerformance {
		fmt.Printf("   %-10s %4d mentions, %d engagement\n", channel.Channel, channel.MentionCount, channel.TotalEngagement)
	}

	fmt.Println("\nTop voices:")
	for i, influencer := range report.Influencers {
		if i >= 5 {
			fmt.Printf("   ... and %d more\n", len(report.Influencers)-5)
			break
		}
		fmt.Printf("   %d. %-20s %d mentions, %d engagement, %.0f%% positive\n",
			i+1, influencer.Username, influencer.Mentions, influencer.TotalEngagement, influencer.PositiveRate)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	return nil
}

func (t *terminalNotifier) SendAlert(_ context.Context, alert *models.Alert) error {
	fmt.Println("\nALERT")
	fmt.Printf("Type: %s\n", alert.Type)
	fmt.Printf("Message: %s\n", alert.Message)
	return nil
}

func metric(m models.Metric, decimals int) string {
	return fmt.Sprintf("%.*f (%+.1f%%, %s)", decimals, m.Value, m.Change, m.Trend)
}

func main() {
	file := flag.String("file", "", "CSV or XLSX export to report on (default: bundled sample set)")
	sampleSize := flag.Int("sample", 200, "number of sample mentions when no file is given")
	period := flag.String("period", reporting.PeriodOnDemand, "period label for the digest")
	outDir := flag.String("out", "test_output", "directory for the JSON report")
	channel := flag.String("channel", "", "only report on this channel")
	infer := flag.Bool("infer-sentiment", false, "classify rows with a blank sentiment cell")
	flag.Parse()

	logrus.SetLevel(logrus.WarnLevel)

	fmt.Println("Social Listening - Report Generator")
	fmt.Println("===================================")

	var classifier sources.Classifier
	if *infer {
		classifier = sources.NewVaderClassifier()
	}
	normalizer := sources.NewRowNormalizer(classifier)

	var src sources.Source = sources.NewSampleSource(*sampleSize, 42)
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Printf("Failed to read %s: %v\n", *file, err)
			os.Exit(1)
		}
		src = sources.NewFileSource(filepath.Base(*file), data, normalizer)
	}

	cfg := &config.Config{ComparisonDays: 30, DefaultEngagementMax: dashboard.DefaultEngagementMax}
	dash := dashboard.NewService(cfg)

	ctx := context.Background()
	if err := ingest.NewLoader(dash, 0).Load(ctx, src); err != nil {
		fmt.Printf("Failed to load mentions: %v\n", err)
		os.Exit(1)
	}

	if *channel != "" {
		if err := dash.AddFilterValue(models.DimensionChannels, *channel); err != nil {
			fmt.Printf("Invalid channel filter: %v\n", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewLocalStorage(*outDir)
	if err != nil {
		fmt.Printf("Failed to prepare %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	service := reporting.NewService(dash, store, &terminalNotifier{})
	_, name, err := service.Publish(ctx, *period)
	if err != nil {
		fmt.Printf("Failed to generate report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nReport saved to: %s\n", filepath.Join(*outDir, name))
}
