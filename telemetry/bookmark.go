package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/wfc/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkBacktrackSpike  BookmarkType = "backtrack_spike"
	BookmarkSlowSolve       BookmarkType = "slow_solve"
	BookmarkFastestSolve    BookmarkType = "fastest_solve"
	BookmarkContradiction   BookmarkType = "contradiction"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Attempt     int          `csv:"attempt"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"attempt", b.Attempt,
		"description", b.Description,
	)
}

// BookmarkDetector watches the stream of RunStats across attempts and
// flags anomalies: backtrack spikes, unusually slow attempts, new
// fastest successful solves, and attempts that ended in contradiction.
type BookmarkDetector struct {
	history     []RunStats
	historySize int
	historyIdx  int
	historyFull bool

	fastestSuccessMS float64
	haveFastest      bool
}

// NewBookmarkDetector creates a detector with the given rolling history
// size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]RunStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest attempt's stats and returns any triggered
// bookmarks, then folds the attempt into the rolling history.
func (bd *BookmarkDetector) Check(stats RunStats) []Bookmark {
	var bookmarks []Bookmark

	if !stats.Success {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkContradiction,
			Attempt:     stats.Attempt,
			Description: fmt.Sprintf("attempt %d ended in contradiction after %d backtracks", stats.Attempt, stats.Backtracks),
		})
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkBacktrackSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSlowSolve(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if stats.Success && (!bd.haveFastest || stats.DurationMS < bd.fastestSuccessMS) {
		bd.fastestSuccessMS = stats.DurationMS
		bd.haveFastest = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkFastestSolve,
			Attempt:     stats.Attempt,
			Description: fmt.Sprintf("new fastest solve: %.2fms", stats.DurationMS),
		})
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats RunStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []RunStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkBacktrackSpike(stats RunStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	cfg := config.Cfg().Bookmarks

	var total int
	for _, h := range history {
		total += h.Backtracks
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}
	if float64(stats.Backtracks) > avg*cfg.BacktrackSpikeMultiplier {
		return &Bookmark{
			Type:        BookmarkBacktrackSpike,
			Attempt:     stats.Attempt,
			Description: fmt.Sprintf("%d backtracks is %.1fx the rolling average (%.1f)", stats.Backtracks, float64(stats.Backtracks)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSlowSolve(stats RunStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	cfg := config.Cfg().Bookmarks

	var total float64
	for _, h := range history {
		total += h.DurationMS
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}
	if stats.DurationMS > avg*cfg.SlowSolveMultiplier {
		return &Bookmark{
			Type:        BookmarkSlowSolve,
			Attempt:     stats.Attempt,
			Description: fmt.Sprintf("%.2fms is %.1fx the rolling average (%.2fms)", stats.DurationMS, stats.DurationMS/avg, avg),
		}
	}
	return nil
}
