package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

func newTestIndex(t *testing.T, h http.HandlerFunc) *ReportIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewReportIndex(es, "radar-reports")
}

func TestIndex_SendsDocument(t *testing.T) {
	var path string
	var doc document
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &doc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	rep := &entity.RadarReport{
		ID:      "r1",
		UserID:  "u1",
		YourURL: "https://acme.com",
		Competitors: []entity.CompetitorAnalysis{{
			URL:      "https://b.com",
			Snapshot: entity.Snapshot{Title: "Beta"},
			Insight:  entity.CompetitorInsight{Summary: "Beta sells to SMBs", Strengths: []string{"price"}},
		}},
		StrategicInsights: entity.StrategicInsights{ActionItems: []entity.ActionItem{{Description: "launch free tier"}}},
	}
	require.NoError(t, idx.Index(context.Background(), rep))

	assert.Equal(t, "/radar-reports/_doc/r1", path)
	assert.Equal(t, "u1", doc.UserID)
	assert.Equal(t, []string{"https://b.com"}, doc.CompetitorURLs)
	assert.Equal(t, []string{"Beta sells to SMBs", "price"}, doc.InsightText)
	assert.Equal(t, []string{"launch free tier"}, doc.ActionItems)
}

func TestSearch_ScopesToOwner(t *testing.T) {
	var query string
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query = string(body)
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"r1","_source":{"id":"r1","user_id":"u1","your_url":"https://acme.com","overall_position":"leading","competitor_count":2,"created_at":"` + created.Format(time.RFC3339) + `"}},
			{"_id":"r2","_source":{"id":"r2","user_id":"someone-else"}}
		]}}`))
	})

	got, err := idx.Search(context.Background(), "u1", " pricing ", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, entity.PositionLeading, got[0].OverallPosition)
	assert.True(t, got[0].CreatedAt.Equal(created))

	assert.True(t, strings.Contains(query, `"user_id":"u1"`))
	assert.True(t, strings.Contains(query, `"query":"pricing"`))
	assert.True(t, strings.Contains(query, `"size":10`))
}

func TestSearch_ErrorStatus(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
	})
	_, err := idx.Search(context.Background(), "u1", "x", 5)
	assert.Error(t, err)
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	var calls []string
	var mapping string
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mapping = string(body)
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))
	assert.Equal(t, []string{"HEAD /radar-reports", "PUT /radar-reports"}, calls)
	assert.Contains(t, mapping, `"user_id":               {"type": "keyword"}`)
}

func TestEnsureIndex_NoopWhenPresent(t *testing.T) {
	var calls int
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, idx.EnsureIndex(context.Background()))
	assert.Equal(t, 1, calls)
}
