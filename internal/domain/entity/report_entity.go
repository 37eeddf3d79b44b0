package entity

import (
	"strings"
	"time"
)

type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "low"
	ThreatMedium ThreatLevel = "medium"
	ThreatHigh   ThreatLevel = "high"
)

// ParseThreatLevel accepts any casing and surrounding space.
func ParseThreatLevel(s string) (ThreatLevel, bool) {
	switch ThreatLevel(strings.ToLower(strings.TrimSpace(s))) {
	case ThreatLow:
		return ThreatLow, true
	case ThreatMedium:
		return ThreatMedium, true
	case ThreatHigh:
		return ThreatHigh, true
	}
	return "", false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityCritical:
		return PriorityCritical, true
	}
	return "", false
}

// Position is the subject's overall standing against the analysed set.
type Position string

const (
	PositionLeading     Position = "leading"
	PositionCompetitive Position = "competitive"
	PositionLagging     Position = "lagging"
)

func ParsePosition(s string) (Position, bool) {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case PositionLeading:
		return PositionLeading, true
	case PositionCompetitive:
		return PositionCompetitive, true
	case PositionLagging:
		return PositionLagging, true
	}
	return "", false
}

// CompetitorInsight is derived from one competitor snapshot in the subject's context.
type CompetitorInsight struct {
	ThreatLevel     ThreatLevel `json:"threat_level"`
	Summary         string      `json:"summary"`
	Strengths       []string    `json:"strengths"`
	Weaknesses      []string    `json:"weaknesses"`
	Opportunities   []string    `json:"opportunities"`
	Differentiators []string    `json:"differentiators"`
}

type ActionItem struct {
	Priority    Priority `json:"priority"`
	Description string   `json:"description"`
	Rationale   string   `json:"rationale,omitempty"`
	Category    string   `json:"category,omitempty"`
}

const (
	StrategicSourceModel     = "model"
	StrategicSourceHeuristic = "heuristic"
)

// StrategicInsights is the roll-up across every successful competitor insight.
type StrategicInsights struct {
	OverallCompetitivePosition Position     `json:"overall_competitive_position"`
	Summary                    string       `json:"summary"`
	ActionItems                []ActionItem `json:"action_items"`
	MarketGaps                 []string     `json:"market_gaps,omitempty"`
	Source                     string       `json:"source"`
}

type CompetitorAnalysis struct {
	URL      string            `json:"url"`
	Snapshot Snapshot          `json:"snapshot"`
	Insight  CompetitorInsight `json:"insight"`
}

const (
	StageFetch     = "fetch"
	StageSynthesis = "synthesis"
)

// CompetitorFailure records a competitor dropped from the report.
type CompetitorFailure struct {
	URL    string `json:"url"`
	Index  int    `json:"index"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// RadarReport is write-once. The summary counters are a cache of the nested
// data and are only ever set by Summarize.
type RadarReport struct {
	ID                   string               `json:"id"`
	UserID               string               `json:"user_id"`
	YourURL              string               `json:"your_url"`
	YourSnapshot         Snapshot             `json:"your_snapshot"`
	Competitors          []CompetitorAnalysis `json:"competitors"`
	StrategicInsights    StrategicInsights    `json:"strategic_insights"`
	RequestedCompetitors int                  `json:"requested_competitors"`
	Failures             []CompetitorFailure  `json:"failures,omitempty"`
	Partial              bool                 `json:"partial"`
	ExecutionTimeMs      int64                `json:"execution_time_ms"`
	CreatedAt            time.Time            `json:"created_at"`

	CompetitorCount     int `json:"competitor_count"`
	HighThreatCount     int `json:"high_threat_count"`
	CriticalActionCount int `json:"critical_action_count"`
}

// ReportCounts holds the derived summary scalars of a report.
type ReportCounts struct {
	CompetitorCount     int
	HighThreatCount     int
	CriticalActionCount int
}

// Counts recomputes the summary scalars from the nested structure.
func (r *RadarReport) Counts() ReportCounts {
	c := ReportCounts{CompetitorCount: len(r.Competitors)}
	for _, comp := range r.Competitors {
		if comp.Insight.ThreatLevel == ThreatHigh {
			c.HighThreatCount++
		}
	}
	for _, item := range r.StrategicInsights.ActionItems {
		if item.Priority == PriorityCritical {
			c.CriticalActionCount++
		}
	}
	return c
}

// Summarize fills the cached counters and the partial flag.
func (r *RadarReport) Summarize() {
	c := r.Counts()
	r.CompetitorCount = c.CompetitorCount
	r.HighThreatCount = c.HighThreatCount
	r.CriticalActionCount = c.CriticalActionCount
	r.Partial = len(r.Competitors) < r.RequestedCompetitors
}

// SummaryConsistent reports whether the cached counters match the nested data.
func (r *RadarReport) SummaryConsistent() bool {
	c := r.Counts()
	return c.CompetitorCount == r.CompetitorCount &&
		c.HighThreatCount == r.HighThreatCount &&
		c.CriticalActionCount == r.CriticalActionCount
}

// Summary projects the listing row of a report.
func (r *RadarReport) Summary() ReportSummary {
	return ReportSummary{
		ID:                  r.ID,
		UserID:              r.UserID,
		YourURL:             r.YourURL,
		OverallPosition:     r.StrategicInsights.OverallCompetitivePosition,
		CompetitorCount:     r.CompetitorCount,
		HighThreatCount:     r.HighThreatCount,
		CriticalActionCount: r.CriticalActionCount,
		Partial:             r.Partial,
		ExecutionTimeMs:     r.ExecutionTimeMs,
		CreatedAt:           r.CreatedAt,
	}
}

type ReportSummary struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"-"`
	YourURL             string    `json:"your_url"`
	OverallPosition     Position  `json:"overall_position"`
	CompetitorCount     int       `json:"competitor_count"`
	HighThreatCount     int       `json:"high_threat_count"`
	CriticalActionCount int       `json:"critical_action_count"`
	Partial             bool      `json:"partial"`
	ExecutionTimeMs     int64     `json:"execution_time_ms"`
	CreatedAt           time.Time `json:"created_at"`
}
