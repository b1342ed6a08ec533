package extract

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"brandscope/pkg/types"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// Several loose shapes; candidates are validated by digit count.
	phoneRes = []*regexp.Regexp{
		regexp.MustCompile(`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\+?\d{1,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}`),
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}-?\d{4}`),
	}
	digitsRe = regexp.MustCompile(`\D`)
)

// Contact extracts emails and phone numbers from the page text. When a
// contact-page link is known and a client is supplied, that page is
// fetched once and its findings unioned in; any failure there leaves
// the homepage result untouched.
func Contact(ctx context.Context, doc *goquery.Document, contactPageURL string, client Fetcher, logger *slog.Logger) types.ContactInfo {
	info := types.ContactInfo{ContactPageURL: contactPageURL}
	if doc == nil {
		return info
	}

	info.Emails, info.Phones = scanContactText(doc)

	if contactPageURL != "" && client != nil {
		contactDoc, err := client.Document(ctx, contactPageURL)
		if err != nil {
			if logger != nil {
				logger.Debug("contact page fetch failed", "url", contactPageURL, "error", err)
			}
			return info
		}
		emails, phones := scanContactText(contactDoc)
		info.Emails = mergeUnique(info.Emails, emails)
		info.Phones = mergeUnique(info.Phones, phones)
	}

	return info
}

func scanContactText(doc *goquery.Document) (emails, phones []string) {
	text := doc.Text()

	seenEmail := make(map[string]struct{})
	for _, email := range emailRe.FindAllString(text, -1) {
		if _, dup := seenEmail[email]; dup {
			continue
		}
		seenEmail[email] = struct{}{}
		emails = append(emails, email)
	}

	seenPhone := make(map[string]struct{})
	for _, re := range phoneRes {
		for _, candidate := range re.FindAllString(text, -1) {
			candidate = CleanText(candidate)
			if !plausiblePhone(candidate) {
				continue
			}
			if _, dup := seenPhone[candidate]; dup {
				continue
			}
			seenPhone[candidate] = struct{}{}
			phones = append(phones, candidate)
		}
	}
	return emails, phones
}

// plausiblePhone keeps candidates with 7 to 15 digits after stripping
// formatting, the range real subscriber numbers occupy.
func plausiblePhone(candidate string) bool {
	digits := digitsRe.ReplaceAllString(candidate, "")
	return len(digits) >= 7 && len(digits) <= 15
}

func mergeUnique(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, list := range lists {
		for _, item := range list {
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged
}
