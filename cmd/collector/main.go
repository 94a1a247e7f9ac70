package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/internal/config"
	"github.com/newswatch/youtube-newswatch-go/internal/feed"
	"github.com/newswatch/youtube-newswatch-go/internal/ledger"
	"github.com/newswatch/youtube-newswatch-go/internal/model"
	"github.com/newswatch/youtube-newswatch-go/internal/resolver"
	"github.com/newswatch/youtube-newswatch-go/internal/service"
	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

const httpTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	var (
		topicName   string
		topicsPath  string
		listTopics  bool
		testRSS     bool
		statusDaily bool
		dryRun      bool
	)

	flag.StringVar(&topicName, "topic", "", "Process a single topic by name")
	flag.StringVar(&topicsPath, "topics", "", "Topics file path (overrides config)")
	flag.BoolVar(&listTopics, "list-topics", false, "List configured topics and exit")
	flag.BoolVar(&testRSS, "test-rss", false, "Fetch and print recent videos per topic without touching the ledger")
	flag.BoolVar(&statusDaily, "status-daily", false, "Print per-date ledger status and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "Collect against an in-memory ledger, persist nothing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if topicsPath == "" {
		topicsPath = cfg.Veille.TopicsFile
	}

	topics, err := config.LoadTopics(topicsPath, cfg.Veille.HorizonDays)
	if err != nil {
		logger.Log.Error("failed to load topics", zap.Error(err))
		return 1
	}

	if topicName != "" {
		topic, ok := config.FindTopic(topics, topicName)
		if !ok {
			logger.Log.Error("unknown topic", zap.String("topic", topicName))
			return 1
		}
		topics = []model.Topic{topic}
	}

	if listTopics {
		printTopics(topics)
		return 0
	}

	ctx := context.Background()
	httpClient := &http.Client{Timeout: httpTimeout}
	res := resolver.New(httpClient)
	fetcher := feed.NewFetcher(httpClient, "")

	if testRSS {
		return runTestRSS(ctx, res, fetcher, topics)
	}

	led, cleanup, err := buildLedger(ctx, cfg, dryRun)
	if err != nil {
		logger.Log.Error("failed to initialize ledger", zap.Error(err))
		return 1
	}
	defer cleanup()

	if statusDaily {
		return printStatus(ctx, led)
	}

	var publisher *service.VideoPublisher
	if cfg.RabbitMQ.Enabled && !dryRun {
		publisher, err = service.NewVideoPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Log.Error("failed to connect to RabbitMQ", zap.Error(err))
			return 1
		}
		defer publisher.Close()
	}

	coordinator := service.NewCoordinator(res, fetcher, led, nil)

	failed := false
	for _, topic := range topics {
		if err := runTopic(ctx, coordinator, publisher, topic); err != nil {
			logger.Log.Error("topic run failed", zap.String("topic", topic.Name), zap.Error(err))
			failed = true
		}
	}

	if failed {
		return 1
	}
	return 0
}

// runTopic collects the unprocessed videos for one topic. With a
// publisher each video is handed to the synthesis pipeline and marked
// processed only once the broker confirmed it; without one the result is
// printed and nothing is marked, so the next run surfaces the same
// videos.
func runTopic(ctx context.Context, coordinator *service.Coordinator, publisher *service.VideoPublisher, topic model.Topic) error {
	result, err := coordinator.CollectNewVideos(ctx, topic)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Printf("warning: channel %s skipped at %s: %s\n", w.Channel, w.Stage, w.Reason)
	}

	if len(result.NewVideos) == 0 {
		fmt.Printf("topic %s: no new videos\n", topic.Name)
		return nil
	}

	byDate := result.GroupByDate()
	fmt.Printf("topic %s: %d new video(s) across %d day(s)\n",
		topic.Name, len(result.NewVideos), len(byDate))

	if publisher == nil {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		logger.Log.Info("no publisher configured, nothing marked processed",
			zap.String("topic", topic.Name))
		return nil
	}

	for _, date := range result.Dates() {
		for _, video := range byDate[date] {
			if err := publisher.PublishNewVideo(ctx, result, topic.Keywords, video); err != nil {
				logger.Log.Error("publish failed, video stays unprocessed",
					zap.String("videoId", video.VideoID),
					zap.Error(err),
				)
				continue
			}
			if err := coordinator.MarkProcessed(ctx, video); err != nil {
				// Published but not recorded: the video will be
				// re-delivered next run. At-least-once, never lost.
				return fmt.Errorf("mark processed %s: %w", video.VideoID, err)
			}
		}
	}

	return nil
}

func runTestRSS(ctx context.Context, res *resolver.Resolver, fetcher *feed.Fetcher, topics []model.Topic) int {
	for _, topic := range topics {
		fmt.Printf("topic: %s\n", topic.Name)
		for _, rawURL := range topic.Channels {
			name := resolver.ChannelName(rawURL)

			channelID, err := res.Resolve(ctx, rawURL)
			if err != nil {
				fmt.Printf("  %s: resolve failed (%s)\n", name, resolver.Reason(err))
				continue
			}

			records, err := fetcher.Fetch(ctx, channelID)
			if err != nil {
				fmt.Printf("  %s: fetch failed (%s)\n", name, feed.Reason(err))
				continue
			}

			recent := feed.FilterRecent(records, topic.HorizonDays, time.Now())
			fmt.Printf("  %s: %d recent video(s)\n", name, len(recent))
			for i, v := range recent {
				if i >= 3 {
					break
				}
				fmt.Printf("    - %s (%s)\n      %s\n", v.Title, v.PublishedDate(), v.URL)
			}
		}
	}
	return 0
}

func printStatus(ctx context.Context, led ledger.Ledger) int {
	counts, err := led.Status(ctx)
	if err != nil {
		logger.Log.Error("ledger status failed", zap.Error(err))
		return 1
	}

	if len(counts) == 0 {
		fmt.Println("ledger is empty")
		return 0
	}

	dates := make([]string, 0, len(counts))
	for date := range counts {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	for _, date := range dates {
		fmt.Printf("%s  %d video(s) processed\n", date, counts[date])
	}
	return 0
}

func printTopics(topics []model.Topic) {
	for _, t := range topics {
		names := make([]string, 0, len(t.Channels))
		for _, ch := range t.Channels {
			names = append(names, resolver.ChannelName(ch))
		}
		fmt.Printf("%s (volume: %d, horizon: %d days)\n", t.Name, t.Volume, t.HorizonDays)
		if len(t.Keywords) > 0 {
			fmt.Printf("  keywords: %s\n", strings.Join(t.Keywords, ", "))
		}
		fmt.Printf("  channels: %s\n", strings.Join(names, ", "))
	}
}

// buildLedger selects the configured backend. Dry runs always get the
// in-memory ledger.
func buildLedger(ctx context.Context, cfg *config.Config, dryRun bool) (ledger.Ledger, func(), error) {
	if dryRun {
		logger.Log.Info("dry run: using in-memory ledger")
		return ledger.NewMemoryLedger(), func() {}, nil
	}

	switch cfg.Ledger.Backend {
	case "postgres":
		pool, err := ledger.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return ledger.NewPostgresLedger(pool), pool.Close, nil
	case "file", "":
		return ledger.NewFileLedger(cfg.Ledger.Dir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend: %s", cfg.Ledger.Backend)
	}
}
