package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"brandscope/pkg/types"
)

// Strategy is one heuristic FAQ-mining technique. Strategies run in a
// fixed order over a page and the chain stops early once enough
// entries have been found, so new techniques slot in without touching
// the driver.
type Strategy func(doc *goquery.Document) []types.FAQ

// faqStrategies is the ordered fallback chain applied to dedicated
// FAQ pages.
var faqStrategies = []Strategy{
	structuredDataFAQs,
	accordionFAQs,
	textPatternFAQs,
	listFAQs,
	toggleFAQs,
}

const (
	minAnswerLen   = 10
	maxQuestionLen = 200
	maxAnswerLen   = 500
	// perPageEnough stops the strategy chain on a page once a single
	// page has yielded this many entries.
	perPageEnough = 5
)

var (
	faqSectionClassRe = regexp.MustCompile(`(?i)faq|question|accordion|customerservice|help`)
	faqContainerRe    = regexp.MustCompile(`(?i)faq|qa|question`)
	faqListClassRe    = regexp.MustCompile(`(?i)faq|question|help`)
	qaQuestionRe      = regexp.MustCompile(`(?is)\bQ\s*[:.]?\s*([^?]{2,200}\?)\s*A\s*[:.]?\s*`)
)

// faqLinkKeywords match link labels or hrefs that lead to FAQ pages.
var faqLinkKeywords = []string{
	"faq", "faqs", "frequently asked questions", "help", "support",
	"questions", "customerservice", "customer service", "help center",
	"support center", "knowledge base", "ask us", "common questions",
}

// FAQOptions bounds the FAQ extraction.
type FAQOptions struct {
	MaxEntries int
	MaxPages   int
}

// FAQs extracts question/answer pairs from the page itself and from up
// to MaxPages linked FAQ pages, deduplicated by normalized question
// text and capped at MaxEntries. A page without FAQ markup yields an
// empty list, never an error.
func FAQs(ctx context.Context, doc *goquery.Document, baseURL string, client Fetcher, opts FAQOptions, logger *slog.Logger) []types.FAQ {
	if doc == nil {
		return nil
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 10
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 3
	}

	faqs := sectionFAQs(doc)

	if client != nil {
		links := faqLinks(doc, baseURL)
		if logger != nil && len(links) > 0 {
			logger.Debug("discovered faq pages", "count", len(links))
		}
		if len(links) > opts.MaxPages {
			links = links[:opts.MaxPages]
		}
		for _, link := range links {
			if len(faqs) >= opts.MaxEntries {
				break
			}
			faqDoc, err := client.Document(ctx, link)
			if err != nil {
				if logger != nil {
					logger.Debug("faq page fetch failed", "url", link, "error", err)
				}
				continue
			}
			faqs = append(faqs, pageFAQs(faqDoc)...)
		}
	}

	unique := dedupeFAQs(faqs)
	if len(unique) > opts.MaxEntries {
		unique = unique[:opts.MaxEntries]
	}
	return unique
}

// pageFAQs runs the strategy chain over one dedicated FAQ page,
// stopping once a strategy run has produced enough entries.
func pageFAQs(doc *goquery.Document) []types.FAQ {
	var faqs []types.FAQ
	for _, strategy := range faqStrategies {
		faqs = append(faqs, strategy(doc)...)
		if len(faqs) >= perPageEnough {
			break
		}
	}
	return faqs
}

// sectionFAQs scans FAQ-labeled containers on the current page,
// pairing heading-like elements with the following sibling or the
// first paragraph-like element in the same container.
func sectionFAQs(doc *goquery.Document) []types.FAQ {
	var faqs []types.FAQ

	doc.Find("div,section").Each(func(_ int, section *goquery.Selection) {
		class, _ := section.Attr("class")
		if !faqSectionClassRe.MatchString(class) {
			return
		}
		section.Find("h3,h4,h5").EachWithBreak(func(i int, heading *goquery.Selection) bool {
			if i >= 10 {
				return false
			}
			question := CleanText(heading.Text())
			if question == "" {
				return true
			}
			answerSel := heading.Next()
			if answerSel.Length() == 0 {
				answerSel = heading.Parent().Find("p,div").First()
			}
			appendFAQ(&faqs, question, answerSel.Text(), "General")
			return true
		})
	})

	return faqs
}

// structuredDataFAQs reads schema.org FAQPage JSON-LD blocks.
func structuredDataFAQs(doc *goquery.Document) []types.FAQ {
	var faqs []types.FAQ

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		raw := strings.TrimSpace(script.Text())
		if raw == "" {
			return
		}
		var nodes []map[string]any
		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			nodes = append(nodes, single)
		} else if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
			return
		}
		for _, node := range nodes {
			if t, _ := node["@type"].(string); !strings.EqualFold(t, "FAQPage") {
				continue
			}
			entities, _ := node["mainEntity"].([]any)
			for _, entity := range entities {
				item, ok := entity.(map[string]any)
				if !ok {
					continue
				}
				question, _ := item["name"].(string)
				if question == "" {
					question, _ = item["headline"].(string)
				}
				var answer string
				if accepted, ok := item["acceptedAnswer"].(map[string]any); ok {
					text, _ := accepted["text"].(string)
					answer = CleanHTML(text)
				}
				appendFAQ(&faqs, CleanText(question), answer, "Structured Data")
			}
		}
	})

	return faqs
}

// accordionFAQs mines accordion and collapsible widgets.
func accordionFAQs(doc *goquery.Document) []types.FAQ {
	var faqs []types.FAQ

	selectors := []string{
		`[class*="accordion"]`,
		`[class*="collapse"]`,
		`[class*="toggle"]`,
		`[data-toggle]`,
		".faq-item",
		".question-item",
	}
	for _, selector := range selectors {
		doc.Find(selector).EachWithBreak(func(i int, item *goquery.Selection) bool {
			if i >= 5 {
				return false
			}
			heading := item.Find("h1,h2,h3,h4,h5,h6,button,.question").First()
			if heading.Length() == 0 {
				return true
			}
			question := CleanText(heading.Text())
			if !strings.Contains(question, "?") {
				return true
			}
			answerSel := item.Find(".answer,.content,.collapse,.accordion-content").First()
			if answerSel.Length() == 0 {
				answerSel = heading.Next()
			}
			appendFAQ(&faqs, question, answerSel.Text(), "FAQ Page")
			return true
		})
	}

	return faqs
}

// textPatternFAQs matches "Q: ... A: ..." runs in the flattened text
// of FAQ-labeled containers. Answers span from one question match to
// the start of the next.
func textPatternFAQs(doc *goquery.Document) []types.FAQ {
	var faqs []types.FAQ

	doc.Find("div,section").EachWithBreak(func(i int, container *goquery.Selection) bool {
		class, _ := container.Attr("class")
		if !faqContainerRe.MatchString(class) {
			return true
		}
		text := container.Text()
		matches := qaQuestionRe.FindAllStringSubmatchIndex(text, -1)
		for j, match := range matches {
			if j >= 3 {
				break
			}
			question := CleanText(text[match[2]:match[3]])
			answerEnd := len(text)
			if j+1 < len(matches) {
				answerEnd = matches[j+1][0]
			}
			answer := CleanText(text[match[1]:answerEnd])
			if len(question) > 5 {
				appendFAQ(&faqs, question, answer, "Text Pattern")
			}
		}
		return len(faqs) < perPageEnough
	})

	return faqs
}

// listFAQs reads alternating question/answer items out of FAQ-labeled
// lists and definition lists.
func listFAQs(doc *goquery.Document) []types.FAQ {
	var faqs []types.FAQ

	doc.Find("ul,ol,dl").EachWithBreak(func(i int, list *goquery.Selection) bool {
		class, _ := list.Attr("class")
		if !faqListClassRe.MatchString(class) {
			return true
		}
		items := list.Find("li,dt,dd")
		for j := 0; j+1 < items.Length(); j += 2 {
			question := CleanText(items.Eq(j).Text())
			answer := items.Eq(j + 1).Text()
			if strings.Contains(question, "?") {
				appendFAQ(&faqs, question, answer, "List")
			}
		}
		return i < 1
	})

	return faqs
}

// toggleFAQs follows expandable trigger elements to their target
// panels via data-target/aria-controls ids, or the next sibling.
func toggleFAQs(doc *goquery.Document) []types.FAQ {
	var faqs []types.FAQ

	selectors := []string{
		`[data-toggle="collapse"]`,
		".toggle-question",
		".expandable",
		`[onclick*="toggle"]`,
		".faq-toggle",
	}
	for _, selector := range selectors {
		doc.Find(selector).EachWithBreak(func(i int, trigger *goquery.Selection) bool {
			if i >= 5 {
				return false
			}
			question := CleanText(trigger.Text())
			if !strings.Contains(question, "?") {
				return true
			}
			targetID, ok := trigger.Attr("data-target")
			if !ok {
				targetID, _ = trigger.Attr("aria-controls")
			}
			var answerSel *goquery.Selection
			if targetID != "" {
				answerSel = doc.Find("#" + strings.TrimPrefix(targetID, "#"))
			} else {
				answerSel = trigger.Next()
			}
			appendFAQ(&faqs, question, answerSel.Text(), "Toggle")
			return true
		})
	}

	return faqs
}

// faqLinks discovers FAQ-page URLs across the global navigation
// regions: the whole page, header, footer, nav, and any container
// whose id or class marks it as navigation chrome.
func faqLinks(doc *goquery.Document, baseURL string) []string {
	base := BaseURL(doc, baseURL)

	areas := []*goquery.Selection{
		doc.Selection,
		doc.Find("footer"),
		doc.Find("header"),
		doc.Find("nav"),
		doc.Find(`[id*="footer"],[id*="navigation"],[id*="menu"]`),
		doc.Find(`[class*="footer"],[class*="navigation"],[class*="menu"],[class*="nav"]`),
	}

	seen := make(map[string]struct{})
	var links []string
	for _, area := range areas {
		if area.Length() == 0 {
			continue
		}
		matchLinks(area, base, func(label, href string) bool {
			if !containsAny(label, href, faqLinkKeywords) {
				return true
			}
			if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
				return true
			}
			if _, dup := seen[href]; !dup {
				seen[href] = struct{}{}
				links = append(links, href)
			}
			return true
		})
	}
	return links
}

// appendFAQ cleans and bounds a candidate pair, dropping answers too
// short to be real (a guard against false-positive heading/sibling
// pairings).
func appendFAQ(faqs *[]types.FAQ, question, rawAnswer, category string) {
	question = CleanText(question)
	answer := CleanText(rawAnswer)
	if question == "" || len(answer) < minAnswerLen {
		return
	}
	*faqs = append(*faqs, types.FAQ{
		Question: Truncate(question, maxQuestionLen),
		Answer:   Truncate(answer, maxAnswerLen),
		Category: category,
	})
}

// dedupeFAQs keeps the first entry per normalized question and drops
// questions whose normalized form is too short to be meaningful.
func dedupeFAQs(faqs []types.FAQ) []types.FAQ {
	seen := make(map[string]struct{}, len(faqs))
	var unique []types.FAQ
	for _, faq := range faqs {
		key := NormalizeQuestion(faq.Question)
		if len(key) <= 5 {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, faq)
	}
	return unique
}
