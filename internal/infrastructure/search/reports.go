// Package search indexes reports in Elasticsearch for owner-scoped full-text lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

const (
	DefaultSize = 10
	MaxSize     = 50
	esTimeout   = 3 * time.Second
)

type ReportIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewReportIndex(es *elasticsearch.Client, index string) *ReportIndex {
	return &ReportIndex{es: es, index: index}
}

// document is the indexed projection of a report.
type document struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	YourURL             string    `json:"your_url"`
	CompetitorURLs      []string  `json:"competitor_urls"`
	CompetitorTitles    []string  `json:"competitor_titles"`
	OverallPosition     string    `json:"overall_position"`
	Summary             string    `json:"summary"`
	InsightText         []string  `json:"insight_text"`
	ActionItems         []string  `json:"action_items"`
	MarketGaps          []string  `json:"market_gaps"`
	CompetitorCount     int       `json:"competitor_count"`
	HighThreatCount     int       `json:"high_threat_count"`
	CriticalActionCount int       `json:"critical_action_count"`
	Partial             bool      `json:"partial"`
	ExecutionTimeMs     int64     `json:"execution_time_ms"`
	CreatedAt           time.Time `json:"created_at"`
}

func toDocument(r *entity.RadarReport) document {
	d := document{
		ID:                  r.ID,
		UserID:              r.UserID,
		YourURL:             r.YourURL,
		OverallPosition:     string(r.StrategicInsights.OverallCompetitivePosition),
		Summary:             r.StrategicInsights.Summary,
		MarketGaps:          r.StrategicInsights.MarketGaps,
		CompetitorCount:     r.CompetitorCount,
		HighThreatCount:     r.HighThreatCount,
		CriticalActionCount: r.CriticalActionCount,
		Partial:             r.Partial,
		ExecutionTimeMs:     r.ExecutionTimeMs,
		CreatedAt:           r.CreatedAt,
	}
	for _, c := range r.Competitors {
		d.CompetitorURLs = append(d.CompetitorURLs, c.URL)
		d.CompetitorTitles = append(d.CompetitorTitles, c.Snapshot.Title)
		d.InsightText = append(d.InsightText, c.Insight.Summary)
		d.InsightText = append(d.InsightText, c.Insight.Strengths...)
		d.InsightText = append(d.InsightText, c.Insight.Differentiators...)
	}
	for _, a := range r.StrategicInsights.ActionItems {
		d.ActionItems = append(d.ActionItems, a.Description)
	}
	return d
}

func (d document) summary() entity.ReportSummary {
	return entity.ReportSummary{
		ID:                  d.ID,
		UserID:              d.UserID,
		YourURL:             d.YourURL,
		OverallPosition:     entity.Position(d.OverallPosition),
		CompetitorCount:     d.CompetitorCount,
		HighThreatCount:     d.HighThreatCount,
		CriticalActionCount: d.CriticalActionCount,
		Partial:             d.Partial,
		ExecutionTimeMs:     d.ExecutionTimeMs,
		CreatedAt:           d.CreatedAt,
	}
}

func (x *ReportIndex) Index(ctx context.Context, r *entity.RadarReport) error {
	b, err := json.Marshal(toDocument(r))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: r.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, esTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("index report %s: %w", r.ID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index report %s: %s", r.ID, res.Status())
	}
	return nil
}

// Search matches q against the owner's reports only.
func (x *ReportIndex) Search(ctx context.Context, ownerID, q string, size int) ([]entity.ReportSummary, error) {
	if size <= 0 || size > MaxSize {
		size = DefaultSize
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id": ownerID}},
				},
				"must": []any{
					map[string]any{"multi_match": map[string]any{
						"query":  strings.TrimSpace(q),
						"fields": []string{"your_url^3", "competitor_urls^2", "competitor_titles^2", "summary", "insight_text", "action_items", "market_gaps"},
					}},
				},
			},
		},
		"sort": []any{"_score", map[string]any{"created_at": "desc"}},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, esTimeout)
	defer cancel()
	res, err := x.es.Search(x.es.Search.WithContext(c), x.es.Search.WithIndex(x.index), x.es.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search reports: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.ReportSummary, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		// the filter already scopes by owner; keep the guard in case of a stale mapping
		if h.Source.UserID != ownerID {
			continue
		}
		out = append(out, h.Source.summary())
	}
	return out, nil
}

// user_id must be a keyword so the owner term filter matches exactly.
const reportMapping = `{
  "mappings": {
    "properties": {
      "id":                    {"type": "keyword"},
      "user_id":               {"type": "keyword"},
      "your_url":              {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "competitor_urls":       {"type": "text"},
      "competitor_titles":     {"type": "text"},
      "overall_position":      {"type": "keyword"},
      "summary":               {"type": "text"},
      "insight_text":          {"type": "text"},
      "action_items":          {"type": "text"},
      "market_gaps":           {"type": "text"},
      "competitor_count":      {"type": "integer"},
      "high_threat_count":     {"type": "integer"},
      "critical_action_count": {"type": "integer"},
      "partial":               {"type": "boolean"},
      "execution_time_ms":     {"type": "long"},
      "created_at":            {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *ReportIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, esTimeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{x.index}}.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("check index %s: %w", x.index, err)
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}
	if res.StatusCode != 404 {
		return fmt.Errorf("check index %s: %s", x.index, res.Status())
	}

	res, err = esapi.IndicesCreateRequest{Index: x.index, Body: strings.NewReader(reportMapping)}.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}
	defer func() { _ = res.Body.Close() }()
	// A concurrent creator wins the race; that is fine.
	if res.IsError() && !strings.Contains(readAll(res), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", x.index, res.Status())
	}
	return nil
}

func readAll(res *esapi.Response) string {
	var b strings.Builder
	_, _ = io.Copy(&b, res.Body)
	return b.String()
}
