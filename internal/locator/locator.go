// Package locator finds image URLs on pages loaded in a browser session.
package locator

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page is the part of a browser session a locator drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Wait(ctx context.Context, d time.Duration) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
}

// ImageLocator discovers the image URLs a scraper should download.
type ImageLocator interface {
	Discover(ctx context.Context, page Page) ([]string, error)
}

// DefaultAttributes are read, in order, from every matched element.
var DefaultAttributes = []string{"src", "data-src", "srcset"}

// PageLocator loads one page and collects image URLs from matching elements.
type PageLocator struct {
	URL string

	// Selector matches image elements. Defaults to "img".
	Selector string

	// Attributes are checked in order; the first non-empty one wins.
	Attributes []string

	// ReadySelector, when set, replaces the fixed WaitTime with a condition wait.
	ReadySelector string
	ReadyTimeout  time.Duration

	WaitTime time.Duration
}

// Discover implements ImageLocator.
func (l PageLocator) Discover(ctx context.Context, page Page) ([]string, error) {
	if err := page.Navigate(ctx, l.URL); err != nil {
		return nil, err
	}

	if l.ReadySelector != "" {
		if err := page.WaitFor(ctx, l.ReadySelector, l.ReadyTimeout); err != nil {
			return nil, err
		}
	} else if err := page.Wait(ctx, l.WaitTime); err != nil {
		return nil, err
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}

	base := l.URL
	if cur, err := page.CurrentURL(ctx); err == nil && cur != "" {
		base = cur
	}
	return ExtractImageURLs(html, base, l.Selector, l.Attributes...)
}

// StaticLocator returns a fixed list of URLs without touching the page.
type StaticLocator []string

// Discover implements ImageLocator.
func (l StaticLocator) Discover(context.Context, Page) ([]string, error) {
	return append([]string(nil), l...), nil
}

// ExtractImageURLs parses html and returns absolute image URLs in document order.
// Relative references resolve against the document's <base href> or pageURL.
// data: URIs and repeated URLs are dropped.
func ExtractImageURLs(html, pageURL, selector string, attributes ...string) ([]string, error) {
	if selector == "" {
		selector = "img"
	}
	if len(attributes) == 0 {
		attributes = DefaultAttributes
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	seen := make(map[string]struct{})
	var urls []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		ref := firstReference(s, attributes)
		if ref == "" {
			return
		}
		u, err := base.Parse(ref)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		abs := u.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		urls = append(urls, abs)
	})
	return urls, nil
}

func firstReference(s *goquery.Selection, attributes []string) string {
	for _, attr := range attributes {
		v, ok := s.Attr(attr)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		if attr == "srcset" {
			v = firstSrcsetCandidate(v)
		}
		if v == "" || strings.HasPrefix(strings.ToLower(v), "data:") {
			continue
		}
		return v
	}
	return ""
}

// firstSrcsetCandidate returns the URL of the first "url descriptor" pair.
func firstSrcsetCandidate(srcset string) string {
	first := strings.TrimSpace(strings.Split(srcset, ",")[0])
	if fields := strings.Fields(first); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
