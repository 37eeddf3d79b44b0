package insight

import (
	"fmt"
	"strings"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

const promptTextRunes = 1500

const competitorSchema = `{
  "threat_level": "low" | "medium" | "high",
  "summary": string,
  "strengths": [string],
  "weaknesses": [string],
  "opportunities": [string],
  "differentiators": [string]
}`

const strategicSchema = `{
  "overall_competitive_position": "leading" | "competitive" | "lagging",
  "summary": string,
  "action_items": [{"priority": "low" | "medium" | "high" | "critical", "description": string, "rationale": string, "category": string}],
  "market_gaps": [string]
}`

func competitorPrompt(subject, competitor *entity.Snapshot) string {
	var b strings.Builder
	b.WriteString("You are a competitive intelligence analyst. Compare the competitor website to our website ")
	b.WriteString("and assess how much of a threat the competitor is to us.\n\n")
	b.WriteString("## Our website\n")
	writeSnapshot(&b, subject)
	b.WriteString("\n## Competitor website\n")
	writeSnapshot(&b, competitor)
	b.WriteString("\nRespond with a single JSON object and nothing else, using exactly this shape:\n")
	b.WriteString(competitorSchema)
	b.WriteString("\n")
	return b.String()
}

func strategicPrompt(subject *entity.Snapshot, competitors []entity.CompetitorAnalysis) string {
	var b strings.Builder
	b.WriteString("You are a marketing strategist. Based on the competitor assessments below, judge our overall ")
	b.WriteString("competitive position and produce a prioritized action plan. Use \"critical\" only for actions ")
	b.WriteString("that address a high threat.\n\n")
	b.WriteString("## Our website\n")
	writeSnapshot(&b, subject)
	for i, c := range competitors {
		fmt.Fprintf(&b, "\n## Competitor %d: %s\n", i+1, c.URL)
		fmt.Fprintf(&b, "Threat level: %s\n", c.Insight.ThreatLevel)
		fmt.Fprintf(&b, "Summary: %s\n", c.Insight.Summary)
		writeList(&b, "Strengths", c.Insight.Strengths)
		writeList(&b, "Weaknesses", c.Insight.Weaknesses)
		writeList(&b, "Opportunities for us", c.Insight.Opportunities)
	}
	b.WriteString("\nRespond with a single JSON object and nothing else, using exactly this shape:\n")
	b.WriteString(strategicSchema)
	b.WriteString("\n")
	return b.String()
}

func writeSnapshot(b *strings.Builder, s *entity.Snapshot) {
	fmt.Fprintf(b, "URL: %s\n", s.URL)
	fmt.Fprintf(b, "Title: %s\n", s.Title)
	if s.MetaDescription != "" {
		fmt.Fprintf(b, "Description: %s\n", s.MetaDescription)
	}
	writeList(b, "H1", s.Headings.H1)
	writeList(b, "H2", s.Headings.H2)
	writeList(b, "Calls to action", s.CallsToAction)
	writeList(b, "Navigation", s.NavLinks)
	fmt.Fprintf(b, "Word count: %d\n", s.WordCount)
	if s.TextSample != "" {
		fmt.Fprintf(b, "Visible text: %s\n", truncate(s.TextSample, promptTextRunes))
	}
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, "; "))
}
