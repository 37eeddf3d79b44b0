package insight

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

const (
	maxListItems   = 8
	maxActionItems = 10
	maxItemRunes   = 300
	maxSummaryRune = 1200
)

var (
	errNoJSONObject = errors.New("no JSON object in output")
	errEmptySummary = errors.New("summary is empty")

	strict = bluemonday.StrictPolicy()
)

// extractObject strips markdown fences and chatter around the outermost JSON object.
func extractObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", errNoJSONObject
	}
	return s[start : end+1], nil
}

// decodeLoose decodes a JSON object and folds its keys so that
// "threat_level", "threatLevel" and "Threat-Level" all read the same.
func decodeLoose(raw string) (map[string]any, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return foldKeys(m), nil
}

func foldKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

func foldKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[foldKey(k)] = v
	}
	return out
}

func str(m map[string]any, key string, limit int) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return clean(s, limit)
}

// list accepts a JSON array of strings or a single string.
func list(m map[string]any, key string) []string {
	out := make([]string, 0)
	switch v := m[key].(type) {
	case string:
		if s := clean(v, maxItemRunes); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = clean(s, maxItemRunes); s != "" {
				out = append(out, s)
			}
			if len(out) == maxListItems {
				break
			}
		}
	}
	return out
}

// clean removes markup, collapses whitespace and bounds the length.
func clean(s string, limit int) string {
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	return truncate(s, limit)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func coerceInsight(raw string) (*entity.CompetitorInsight, error) {
	m, err := decodeLoose(raw)
	if err != nil {
		return nil, err
	}
	lvlRaw, _ := m["threatlevel"].(string)
	lvl, ok := entity.ParseThreatLevel(lvlRaw)
	if !ok {
		return nil, fmt.Errorf("invalid threat level %q", lvlRaw)
	}
	summary := str(m, "summary", maxSummaryRune)
	if summary == "" {
		return nil, errEmptySummary
	}
	return &entity.CompetitorInsight{
		ThreatLevel:     lvl,
		Summary:         summary,
		Strengths:       list(m, "strengths"),
		Weaknesses:      list(m, "weaknesses"),
		Opportunities:   list(m, "opportunities"),
		Differentiators: list(m, "differentiators"),
	}, nil
}

func coerceStrategic(raw string) (*entity.StrategicInsights, error) {
	m, err := decodeLoose(raw)
	if err != nil {
		return nil, err
	}
	posRaw, _ := m["overallcompetitiveposition"].(string)
	pos, ok := entity.ParsePosition(posRaw)
	if !ok {
		return nil, fmt.Errorf("invalid competitive position %q", posRaw)
	}
	summary := str(m, "summary", maxSummaryRune)
	if summary == "" {
		return nil, errEmptySummary
	}

	rawItems, _ := m["actionitems"].([]any)
	items := make([]entity.ActionItem, 0, len(rawItems))
	for _, ri := range rawItems {
		obj, ok := ri.(map[string]any)
		if !ok {
			continue
		}
		obj = foldKeys(obj)
		prioRaw, _ := obj["priority"].(string)
		prio, ok := entity.ParsePriority(prioRaw)
		if !ok {
			continue
		}
		desc := str(obj, "description", maxItemRunes)
		if desc == "" {
			continue
		}
		items = append(items, entity.ActionItem{
			Priority:    prio,
			Description: desc,
			Rationale:   str(obj, "rationale", maxItemRunes),
			Category:    str(obj, "category", 60),
		})
		if len(items) == maxActionItems {
			break
		}
	}
	if len(rawItems) > 0 && len(items) == 0 {
		return nil, errors.New("no usable action items")
	}

	return &entity.StrategicInsights{
		OverallCompetitivePosition: pos,
		Summary:                    summary,
		ActionItems:                items,
		MarketGaps:                 list(m, "marketgaps"),
		Source:                     entity.StrategicSourceModel,
	}, nil
}
