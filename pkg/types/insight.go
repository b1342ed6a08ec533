package types

import "time"

// Product is a normalized storefront catalog entry built from one raw
// products.json record. Price and availability come from the first
// variant only; a product without variants has a nil price and is
// reported unavailable.
type Product struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Handle         string           `json:"handle"`
	Description    string           `json:"description,omitempty"`
	Price          *float64         `json:"price,omitempty"`
	CompareAtPrice *float64         `json:"compare_at_price,omitempty"`
	Vendor         string           `json:"vendor,omitempty"`
	ProductType    string           `json:"product_type,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	Images         []string         `json:"images,omitempty"`
	URL            string           `json:"url"`
	Available      bool             `json:"available"`
	Variants       []map[string]any `json:"variants,omitempty"`
}

// ContactInfo holds deduplicated contact channels found on a store.
type ContactInfo struct {
	Emails         []string `json:"emails"`
	Phones         []string `json:"phone_numbers"`
	Address        string   `json:"address,omitempty"`
	ContactPageURL string   `json:"contact_page_url,omitempty"`
}

// SocialLinks holds at most one URL per supported platform.
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Pinterest string `json:"pinterest,omitempty"`
}

// FilledCount reports how many platform fields carry a URL.
func (s SocialLinks) FilledCount() int {
	count := 0
	for _, v := range []string{s.Instagram, s.Facebook, s.Twitter, s.TikTok, s.YouTube, s.LinkedIn, s.Pinterest} {
		if v != "" {
			count++
		}
	}
	return count
}

// Policies holds the extracted policy texts, each capped at 1000 chars.
type Policies struct {
	Privacy  string `json:"privacy_policy,omitempty"`
	Returns  string `json:"return_policy,omitempty"`
	Refund   string `json:"refund_policy,omitempty"`
	Terms    string `json:"terms_of_service,omitempty"`
	Shipping string `json:"shipping_policy,omitempty"`
}

// FAQ is a single question/answer pair. Category records which
// extraction strategy produced the entry.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

// NavLinks holds up to six labeled navigation links.
type NavLinks struct {
	OrderTracking string `json:"order_tracking,omitempty"`
	ContactUs     string `json:"contact_us,omitempty"`
	Blog          string `json:"blog,omitempty"`
	SizeGuide     string `json:"size_guide,omitempty"`
	Careers       string `json:"careers,omitempty"`
	AboutUs       string `json:"about_us,omitempty"`
}

// BrandInsight is the aggregate extraction result for one store. It is
// constructed once per extraction call and never mutated afterwards.
// Extraction always yields a BrandInsight; callers must branch on
// Success rather than expect an error.
type BrandInsight struct {
	BrandName     string      `json:"brand_name"`
	WebsiteURL    string      `json:"website_url"`
	Catalog       []Product   `json:"product_catalog"`
	HeroProducts  []Product   `json:"hero_products"`
	Contact       ContactInfo `json:"contact_details"`
	Social        SocialLinks `json:"social_handles"`
	Policies      Policies    `json:"policies"`
	FAQs          []FAQ       `json:"faqs"`
	BrandContext  string      `json:"brand_context,omitempty"`
	Links         NavLinks    `json:"important_links"`
	TotalProducts int         `json:"total_products"`
	ExtractedAt   time.Time   `json:"extracted_at"`
	Success       bool        `json:"extraction_success"`
	Errors        []string    `json:"errors,omitempty"`
}

// CompetitorInfo pairs a scored competitor with its own insight record.
type CompetitorInfo struct {
	BrandName       string        `json:"brand_name"`
	WebsiteURL      string        `json:"website_url"`
	SimilarityScore float64       `json:"similarity_score"`
	Insight         *BrandInsight `json:"insights,omitempty"`
}

// CompetitorReport is the result of one competitor analysis run.
type CompetitorReport struct {
	MainBrand   BrandInsight     `json:"main_brand"`
	Competitors []CompetitorInfo `json:"competitors"`
	AnalyzedAt  time.Time        `json:"analysis_date"`
}
