package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

const (
	maxHeadingsPerLevel = 10
	maxCTAs             = 10
	maxNavLinks         = 15
	maxItemLen          = 160
	textSampleRunes     = 2000
)

// nonVisibleSelectors are stripped before visible text is collected.
const nonVisibleSelectors = "script, style, noscript, template, svg, iframe"

const ctaSelectors = "button, a.button, a.btn, a[class*='cta'], [role='button']"

// Extract parses an HTML document into a Snapshot. FetchedAt, FinalURL and
// StatusCode are left to the caller.
func Extract(pageURL string, body []byte) (*entity.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &entity.ParseError{URL: pageURL, Reason: "invalid html", Err: err}
	}

	s := &entity.Snapshot{
		URL:             pageURL,
		Domain:          registrableDomain(pageURL),
		Title:           pageTitle(doc),
		MetaDescription: metaContent(doc, "meta[name='description']"),
		OGTitle:         metaContent(doc, "meta[property='og:title']"),
		OGDescription:   metaContent(doc, "meta[property='og:description']"),
		Language:        strings.TrimSpace(doc.Find("html").AttrOr("lang", "")),
		Headings: entity.Headings{
			H1: collectText(doc.Find("h1"), maxHeadingsPerLevel),
			H2: collectText(doc.Find("h2"), maxHeadingsPerLevel),
			H3: collectText(doc.Find("h3"), maxHeadingsPerLevel),
		},
		NavLinks:   collectText(doc.Find("nav a"), maxNavLinks),
		LinkCount:  doc.Find("a[href]").Length(),
		ImageCount: doc.Find("img").Length(),
	}
	if href, ok := doc.Find("link[rel='canonical']").Attr("href"); ok {
		s.Canonical = strings.TrimSpace(href)
	}
	s.CallsToAction = callsToAction(doc)

	text := visibleText(doc)
	s.WordCount = len(strings.Fields(text))
	s.TextSample = truncateRunes(text, textSampleRunes)
	sum := sha256.Sum256([]byte(text))
	s.ContentHash = hex.EncodeToString(sum[:])

	if s.Title == "" && s.WordCount == 0 && len(s.Headings.H1)+len(s.Headings.H2)+len(s.Headings.H3) == 0 {
		return nil, &entity.ParseError{URL: pageURL, Reason: "no title, headings or visible text"}
	}
	return s, nil
}

func pageTitle(doc *goquery.Document) string {
	if title := collapse(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return metaContent(doc, "meta[property='og:title']")
}

func metaContent(doc *goquery.Document, selector string) string {
	if v, ok := doc.Find(selector).First().Attr("content"); ok {
		return collapse(v)
	}
	return ""
}

// collectText returns the de-duplicated, whitespace-collapsed text of sel.
func collectText(sel *goquery.Selection, limit int) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	sel.EachWithBreak(func(_ int, node *goquery.Selection) bool {
		t := truncateRunes(collapse(node.Text()), maxItemLen)
		if t == "" {
			return true
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		out = append(out, t)
		return len(out) < limit
	})
	return out
}

func callsToAction(doc *goquery.Document) []string {
	out := collectText(doc.Find(ctaSelectors), maxCTAs)
	doc.Find("input[type='submit']").EachWithBreak(func(_ int, in *goquery.Selection) bool {
		if len(out) >= maxCTAs {
			return false
		}
		if v := collapse(in.AttrOr("value", "")); v != "" {
			out = append(out, v)
		}
		return true
	})
	return out
}

func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	body = body.Clone()
	body.Find(nonVisibleSelectors).Remove()
	return collapse(body.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func registrableDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}
