package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"brandscope/pkg/types"
)

// socialPatterns maps each supported platform to the URL shapes its
// profile links take. Order within a pattern list is the fallback
// order; the platform set itself is closed.
var socialPatterns = []struct {
	platform string
	patterns []*regexp.Regexp
}{
	{"instagram", []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?instagram\.com/[A-Za-z0-9_.\-/]+`),
		regexp.MustCompile(`(?i)https?://(?:www\.)?instagr\.am/[A-Za-z0-9_.\-/]+`),
	}},
	{"facebook", []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?facebook\.com/[A-Za-z0-9_.\-/]+`),
		regexp.MustCompile(`(?i)https?://(?:www\.)?fb\.com/[A-Za-z0-9_.\-/]+`),
	}},
	{"twitter", []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?(?:twitter|x)\.com/[A-Za-z0-9_.\-/]+`),
	}},
	{"tiktok", []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?tiktok\.com/@?[A-Za-z0-9_.\-/]+`),
	}},
	{"youtube", []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?youtube\.com/[A-Za-z0-9_.\-/@]+`),
		regexp.MustCompile(`(?i)https?://(?:www\.)?youtu\.be/[A-Za-z0-9_\-]+`),
	}},
	{"linkedin", []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?linkedin\.com/[A-Za-z0-9_.\-/]+`),
	}},
	{"pinterest", []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?pinterest\.[a-z.]+/[A-Za-z0-9_.\-/]+`),
	}},
}

// Social scans every hyperlink href and the raw markup for profile
// URLs of the seven supported platforms. The first match per platform
// wins; later matches are ignored.
func Social(doc *goquery.Document) types.SocialLinks {
	var links types.SocialLinks
	if doc == nil {
		return links
	}

	found := make(map[string]string, len(socialPatterns))

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		for _, entry := range socialPatterns {
			if _, taken := found[entry.platform]; taken {
				continue
			}
			for _, pattern := range entry.patterns {
				if pattern.MatchString(href) {
					found[entry.platform] = href
					break
				}
			}
		}
	})

	// Widgets and scripts embed profile URLs outside anchor tags, so
	// sweep the serialized markup for platforms still missing.
	if len(found) < len(socialPatterns) {
		if html, err := doc.Html(); err == nil {
			for _, entry := range socialPatterns {
				if _, taken := found[entry.platform]; taken {
					continue
				}
				for _, pattern := range entry.patterns {
					if match := pattern.FindString(html); match != "" {
						found[entry.platform] = match
						break
					}
				}
			}
		}
	}

	links.Instagram = found["instagram"]
	links.Facebook = found["facebook"]
	links.Twitter = found["twitter"]
	links.TikTok = found["tiktok"]
	links.YouTube = found["youtube"]
	links.LinkedIn = found["linkedin"]
	links.Pinterest = found["pinterest"]
	return links
}
