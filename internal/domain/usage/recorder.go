// Package usage is the token-usage ledger behind the usage resource.
// All operations are append-only; no updates or deletes are supported.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one upstream completion's token consumption.
type Record struct {
	ID               string    `json:"id"`
	Tool             string    `json:"tool"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

// ModelUsage aggregates usage for one model.
type ModelUsage struct {
	Model            string `json:"model"`
	Calls            int    `json:"calls"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// Summary is the document served by the usage resource.
type Summary struct {
	TotalCalls  int          `json:"total_calls"`
	TotalTokens int          `json:"total_tokens"`
	ByModel     []ModelUsage `json:"by_model"`
}

// Recorder persists usage rows to the sqlite ledger.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a Recorder over an open, migrated database.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one usage row. ID and CreatedAt are filled in when zero.
func (r *Recorder) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("usage: generate id: %w", err)
		}
		rec.ID = id.String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO usage_record (id, tool, model, prompt_tokens, completion_tokens, total_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Tool,
		rec.Model,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.TotalTokens,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("usage: insert record: %w", err)
	}
	return nil
}

// Summary aggregates the whole ledger, heaviest models first.
func (r *Recorder) Summary(ctx context.Context) (*Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT model,
		       COUNT(*),
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COALESCE(SUM(total_tokens), 0)
		FROM usage_record
		GROUP BY model
		ORDER BY SUM(total_tokens) DESC, model ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("usage: query summary: %w", err)
	}
	defer rows.Close()

	out := &Summary{ByModel: []ModelUsage{}}
	for rows.Next() {
		var mu ModelUsage
		if scanErr := rows.Scan(&mu.Model, &mu.Calls, &mu.PromptTokens, &mu.CompletionTokens, &mu.TotalTokens); scanErr != nil {
			return nil, fmt.Errorf("usage: scan summary row: %w", scanErr)
		}
		out.ByModel = append(out.ByModel, mu)
		out.TotalCalls += mu.Calls
		out.TotalTokens += mu.TotalTokens
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usage: iterate summary: %w", err)
	}
	return out, nil
}
