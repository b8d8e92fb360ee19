// Package audit keeps an append-only JSONL log of served rankings.
package audit

import (
	"carfit/internal/rank"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Item is the compact form of a ranked candidate stored in the audit log.
type Item struct {
	Rank     int     `json:"rank"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Price    float64 `json:"price"`
	FitScore float64 `json:"fit_score"`
}

// Record is one served ranking.
type Record struct {
	ID      string
	Session string
	Request rank.Request
	Items   []Item
	EmptyAt string
	Pool    map[string]int
	// Reason — diagnostic code of an empty result.
	Reason string
}

// NewRecord summarizes res for the audit log.
func NewRecord(id, session string, req rank.Request, res rank.Result) Record {
	items := make([]Item, len(res.Items))
	for i, c := range res.Items {
		items[i] = Item{
			Rank:     c.Rank,
			Brand:    c.Vehicle.Brand,
			Model:    c.Vehicle.Model,
			Price:    c.Vehicle.Price,
			FitScore: c.FitScore,
		}
	}
	return Record{
		ID:      id,
		Session: session,
		Request: req,
		Items:   items,
		EmptyAt: res.EmptyAt,
		Pool:    res.Pool,
	}
}

// Log receives audit records.
type Log interface {
	Append(rec Record)
	Close() error
}

// JSONLog writes each record as a JSON line into a file rotated and
// compressed by lumberjack. Safe for concurrent use.
type JSONLog struct {
	lumberjack *lumberjack.Logger
	logger     *slog.Logger
}

// NewJSONLog creates a log.
// Parameters:
//   - file: path of the active log file
//   - maxSize: size in MB before rotation
//   - maxBackups: number of rotated files to keep
func NewJSONLog(file string, maxSize, maxBackups int) *JSONLog {
	lj := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return &JSONLog{
		lumberjack: lj,
		logger:     slog.New(newJSONLHandler(lj)),
	}
}

// Append writes rec as one line.
func (l *JSONLog) Append(rec Record) {
	args := []any{
		"id", rec.ID,
		"session", rec.Session,
		"request", rec.Request,
		"items", rec.Items,
		"pool", rec.Pool,
	}
	if rec.EmptyAt != "" {
		args = append(args, "empty_at", rec.EmptyAt)
	}
	if rec.Reason != "" {
		args = append(args, "reason", rec.Reason)
	}
	l.logger.Info("", args...)
}

// Close flushes and closes the active file.
func (l *JSONLog) Close() error {
	return l.lumberjack.Close()
}

// Discard drops every record. Used when no audit file is configured.
type Discard struct{}

func (Discard) Append(Record) {}

func (Discard) Close() error { return nil }
