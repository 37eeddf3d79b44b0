package analysis

import (
	"fmt"
	"strings"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

const maxHeuristicGaps = 8

// HeuristicStrategy derives a deterministic roll-up from per-competitor
// insights when the strategic reasoning call is unavailable.
func HeuristicStrategy(analyses []entity.CompetitorAnalysis) *entity.StrategicInsights {
	var high, low int
	for _, a := range analyses {
		switch a.Insight.ThreatLevel {
		case entity.ThreatHigh:
			high++
		case entity.ThreatLow:
			low++
		}
	}

	n := len(analyses)
	position := entity.PositionCompetitive
	switch {
	case high*2 > n:
		position = entity.PositionLagging
	case high == 0 && low*2 >= n:
		position = entity.PositionLeading
	}

	items := make([]entity.ActionItem, 0, n)
	for _, a := range analyses {
		name := a.Snapshot.Domain
		if name == "" {
			name = a.URL
		}
		switch a.Insight.ThreatLevel {
		case entity.ThreatHigh:
			items = append(items, entity.ActionItem{
				Priority:    entity.PriorityCritical,
				Description: fmt.Sprintf("Counter %s on its strongest claims", name),
				Rationale:   a.Insight.Summary,
				Category:    "positioning",
			})
		case entity.ThreatMedium:
			items = append(items, entity.ActionItem{
				Priority:    entity.PriorityHigh,
				Description: fmt.Sprintf("Close the gap with %s", name),
				Rationale:   a.Insight.Summary,
				Category:    "positioning",
			})
		}
	}

	seen := make(map[string]struct{})
	gaps := make([]string, 0, maxHeuristicGaps)
	for _, a := range analyses {
		for _, op := range a.Insight.Opportunities {
			key := strings.ToLower(op)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if len(gaps) < maxHeuristicGaps {
				gaps = append(gaps, op)
			}
		}
	}
	for _, g := range gaps {
		items = append(items, entity.ActionItem{Priority: entity.PriorityMedium, Description: g, Category: "opportunity"})
	}

	return &entity.StrategicInsights{
		OverallCompetitivePosition: position,
		Summary:                    fmt.Sprintf("%d of %d analysed competitors pose a high threat.", high, n),
		ActionItems:                items,
		MarketGaps:                 gaps,
		Source:                     entity.StrategicSourceHeuristic,
	}
}
