package tracesim

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const shortIDWidth = 8

// WriteReport renders one row per player and a summary line.
func WriteReport(out io.Writer, results []Result, stats *Stats) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Player", "Session", "Score", "Local", "Star", "Share", "Moves", "Time"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	var data [][]string
	for _, r := range results {
		if r.Err != nil {
			data = append(data, []string{
				strconv.Itoa(r.Player), shortID(r.Session), red("error"), "-", "-", "-",
				strconv.Itoa(r.Moves), r.Duration.Round(time.Millisecond).String(),
			})
			continue
		}
		local := strconv.Itoa(r.Expected)
		if !r.Verified() {
			local = red(local)
		}
		star := "-"
		if r.Star {
			star = yellow("★")
		}
		shareCell := r.Share
		switch r.Share {
		case "":
			shareCell = "-"
		case "succeeded":
			shareCell = green(r.Share)
		case "failed", "error":
			shareCell = red(r.Share)
		}
		data = append(data, []string{
			strconv.Itoa(r.Player),
			shortID(r.Session),
			scoreColor(r.Score),
			local,
			star,
			shareCell,
			strconv.Itoa(r.Moves),
			r.Duration.Round(time.Millisecond).String(),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	summary := fmt.Sprintf("players=%d scored=%d stars=%d shared=%d failed=%d mismatch=%d mean=%.1f duration=%s\n",
		stats.Players, stats.Scored, stats.Stars, stats.Shared, stats.Failed, stats.Mismatch,
		stats.MeanScore, stats.Duration.Round(time.Millisecond))
	if stats.Failed > 0 || stats.Mismatch > 0 {
		summary = red(summary)
	}
	_, err := io.WriteString(out, summary)
	return err
}

// scoreColor colours a score by how close it is to a star.
func scoreColor(score int) string {
	s := strconv.Itoa(score)
	switch {
	case score == 100:
		return color.New(color.FgGreen, color.Bold).Sprint(s)
	case score >= 70:
		return color.New(color.FgGreen).Sprint(s)
	case score >= 40:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgRed).Sprint(s)
	}
}

func shortID(id string) string {
	if len(id) > shortIDWidth {
		return id[:shortIDWidth]
	}
	if id == "" {
		return "-"
	}
	return id
}
