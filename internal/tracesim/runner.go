package tracesim

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/okian/drawtree/pkg/logger"
)

// WorkerChannelMultiplier sizes the player channel relative to workers.
const WorkerChannelMultiplier = 2

// Run executes a complete simulation and writes the report to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, []Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log := logger.Get()
	stats := &Stats{Players: cfg.Players, StartTime: time.Now()}

	log.Info(ctx, "starting trace simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
		logger.Float64("jitter", cfg.Jitter),
		logger.Float64("coverage", cfg.Coverage),
		logger.Bool("share", cfg.Share))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Fetch the outline
	ref, err := client.Reference(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reference retrieval failed: %w", err)
	}
	course, err := NewCourse(ref)
	if err != nil {
		return nil, nil, err
	}

	// Step 3: Play concurrently
	results := playAll(ctx, client, course, cfg)

	// Step 4: Summarize
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	summarize(stats, results)

	if err := WriteReport(out, results, stats); err != nil {
		return stats, results, fmt.Errorf("report: %w", err)
	}

	log.Info(ctx, "trace simulation completed",
		logger.Int("scored", stats.Scored),
		logger.Int("stars", stats.Stars),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatch", stats.Mismatch),
		logger.Float64("meanScore", stats.MeanScore),
		logger.Duration("duration", stats.Duration))
	return stats, results, nil
}

// playAll runs cfg.Players attempts over a fixed pool of workers.
func playAll(ctx context.Context, client *Client, course *Course, cfg *Config) []Result {
	results := make([]Result, cfg.Players)
	players := make(chan int, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range players {
				res := Play(ctx, client, course, cfg, i+1)
				results[i] = res
				if cfg.Verbose {
					logResult(ctx, res)
				}
			}
		}()
	}

	go func() {
		defer close(players)
		for i := range cfg.Players {
			select {
			case <-ctx.Done():
				return
			case players <- i:
			}
		}
	}()

	wg.Wait()

	// Players skipped by cancellation never ran.
	for i := range results {
		if results[i].Player == 0 {
			results[i] = Result{Player: i + 1, Err: ctx.Err()}
		}
	}
	sort.Slice(results, func(a, b int) bool { return results[a].Player < results[b].Player })
	return results
}

func logResult(ctx context.Context, r Result) {
	if r.Err != nil {
		logger.Get().Warn(ctx, "player failed",
			logger.Int("player", r.Player),
			logger.String("session", r.Session),
			logger.Error(r.Err))
		return
	}
	logger.Get().Info(ctx, "player scored",
		logger.Int("player", r.Player),
		logger.String("session", r.Session),
		logger.Int("score", r.Score),
		logger.Bool("star", r.Star),
		logger.String("share", r.Share))
}

func summarize(stats *Stats, results []Result) {
	total := 0
	for _, r := range results {
		if r.Err != nil {
			stats.Failed++
			continue
		}
		stats.Scored++
		total += r.Score
		if r.Star {
			stats.Stars++
		}
		if r.Share == "succeeded" {
			stats.Shared++
		}
		if !r.Verified() {
			stats.Mismatch++
		}
	}
	if stats.Scored > 0 {
		stats.MeanScore = float64(total) / float64(stats.Scored)
	}
}
