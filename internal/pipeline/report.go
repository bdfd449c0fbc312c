package pipeline

import (
	"log/slog"
	"sort"
	"time"

	"hallyu-journalist/internal/model"
)

// Stage names used in reports and logs.
const (
	StageCollect  = "collect"
	StageEnrich   = "enrich"
	StageCurate   = "curate"
	StageBriefing = "briefing"
	StageUpsert   = "upsert"
	StageSeen     = "seen"
	StageSlots    = "slots"
	StageRankings = "rankings"
	StageArchive  = "archive"
)

// Report summarizes one category run.
type Report struct {
	RunID       string            `json:"run_id"`
	Category    model.Category    `json:"category"`
	Mode        string            `json:"mode"`
	StartedAt   time.Time         `json:"started_at"`
	Duration    time.Duration     `json:"duration"`
	Candidates  int               `json:"candidates"`
	Enriched    int               `json:"enriched"`
	Curated     int               `json:"curated"`
	Upserted    int               `json:"upserted"`
	Evicted     int               `json:"evicted"`
	RankUpdates int               `json:"rank_updates"`
	Rankings    int               `json:"rankings"`
	Archived    int               `json:"archived"`
	Model       string            `json:"model,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
}

func (r *Report) fail(stage string, err error) {
	if r.Errors == nil {
		r.Errors = map[string]string{}
	}
	r.Errors[stage] = err.Error()
}

// OK reports whether every stage succeeded.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Log writes the report as a single line.
func (r Report) Log() {
	attrs := []any{
		"run_id", r.RunID, "category", r.Category, "mode", r.Mode, "duration", r.Duration.Round(time.Millisecond),
		"candidates", r.Candidates, "enriched", r.Enriched, "curated", r.Curated, "upserted", r.Upserted,
		"evicted", r.Evicted, "rank_updates", r.RankUpdates, "rankings", r.Rankings, "archived", r.Archived,
	}
	if r.Model != "" {
		attrs = append(attrs, "model", r.Model)
	}
	if len(r.Errors) == 0 {
		slog.Info("pipeline: category done", attrs...)
		return
	}
	stages := make([]string, 0, len(r.Errors))
	for s := range r.Errors {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	for _, s := range stages {
		attrs = append(attrs, "err_"+s, r.Errors[s])
	}
	slog.Warn("pipeline: category done with errors", attrs...)
}
