// Package extract pulls listing entries and article bodies out of news HTML using
// goquery selectors.
package extract

import (
	"bytes"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

// Selectors configures where each field lives in the page markup.
type Selectors struct {
	ListingItem   string `mapstructure:"listing_item"`
	Title         string `mapstructure:"title"`
	Anchor        string `mapstructure:"anchor"`
	DateContainer string `mapstructure:"date_container"`
	DateElement   string `mapstructure:"date_element"`
	DateAttr      string `mapstructure:"date_attr"`
	BodyContainer string `mapstructure:"body_container"`
	Paragraph     string `mapstructure:"paragraph"`
	AdMarker      string `mapstructure:"ad_marker"`
}

// DefaultSelectors matches the detik.com search listing and article layout.
func DefaultSelectors() Selectors {
	return Selectors{
		ListingItem:   "article.list-content__item",
		Title:         "h3.media__title",
		Anchor:        "a[href]",
		DateContainer: ".media__date, .media_date",
		DateElement:   "span",
		DateAttr:      "title",
		BodyContainer: "div.detail__body-text.itp_bodycontent",
		Paragraph:     "p",
		AdMarker:      "ADVERTISEMENT",
	}
}

// Extractor parses listing and detail pages.
type Extractor struct {
	sel Selectors
}

// New builds an Extractor; empty selector fields take their default.
func New(sel Selectors) *Extractor {
	def := DefaultSelectors()
	fill := func(v *string, d string) {
		if strings.TrimSpace(*v) == "" {
			*v = d
		}
	}
	fill(&sel.ListingItem, def.ListingItem)
	fill(&sel.Title, def.Title)
	fill(&sel.Anchor, def.Anchor)
	fill(&sel.DateContainer, def.DateContainer)
	fill(&sel.DateElement, def.DateElement)
	fill(&sel.DateAttr, def.DateAttr)
	fill(&sel.BodyContainer, def.BodyContainer)
	fill(&sel.Paragraph, def.Paragraph)
	fill(&sel.AdMarker, def.AdMarker)
	return &Extractor{sel: sel}
}

// Listing yields one item per fragment that has both a title element and an anchor
// with an href. Fragments missing either are skipped without error. Relative links are
// resolved against pageURL when it is set.
func (e *Extractor) Listing(html []byte, pageURL string) (iter.Seq[crawler.ListingItem], error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(pageURL)
	items := doc.Find(e.sel.ListingItem)

	return func(yield func(crawler.ListingItem) bool) {
		items.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			item, ok := e.listingItem(s, base)
			if !ok {
				return true
			}
			return yield(item)
		})
	}, nil
}

// Body joins the trimmed text of every paragraph in the body container with one space,
// then removes the advertisement marker and all newlines. Nothing else is collapsed,
// so a removed marker between two paragraphs leaves two spaces behind.
func (e *Extractor) Body(html []byte) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}
	container := doc.Find(e.sel.BodyContainer).First()
	if container.Length() == 0 {
		return "", nil
	}

	var parts []string
	container.Find(e.sel.Paragraph).Each(func(_ int, p *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(p.Text()))
	})
	body := strings.Join(parts, " ")
	body = strings.ReplaceAll(body, e.sel.AdMarker, "")
	body = strings.NewReplacer("\r", "", "\n", "").Replace(body)
	return body, nil
}

func (e *Extractor) listingItem(s *goquery.Selection, base *url.URL) (crawler.ListingItem, bool) {
	title := s.Find(e.sel.Title).First()
	if title.Length() == 0 {
		return crawler.ListingItem{}, false
	}
	anchor := title.Find(e.sel.Anchor).First()
	href, ok := anchor.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return crawler.ListingItem{}, false
	}

	return crawler.ListingItem{
		Title:   strings.TrimSpace(anchor.Text()),
		Link:    resolveURL(href, base),
		RawDate: e.dateString(s),
	}, true
}

func (e *Extractor) dateString(s *goquery.Selection) string {
	el := s.Find(e.sel.DateContainer).First().Find(e.sel.DateElement).First()
	if el.Length() == 0 {
		return ""
	}
	if v, ok := el.Attr(e.sel.DateAttr); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(el.Text())
}

func parse(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", crawler.ErrStructure, err)
	}
	return doc, nil
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw string, base *url.URL) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.IsAbs() || base == nil || !base.IsAbs() {
		return raw
	}
	return base.ResolveReference(parsed).String()
}
