// Package scrape coordinates the listing extraction pipeline: fetch, render,
// extract, reconcile, and bounded fan-out over profile pages.
package scrape

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/BAODAU/whop-wss-streaming/dom"
	"github.com/BAODAU/whop-wss-streaming/fetcher"
	"github.com/BAODAU/whop-wss-streaming/flight"
	"github.com/BAODAU/whop-wss-streaming/meta"
	"github.com/BAODAU/whop-wss-streaming/payload"
	"github.com/BAODAU/whop-wss-streaming/schemaorg"
	"github.com/BAODAU/whop-wss-streaming/sections"
	"github.com/BAODAU/whop-wss-streaming/snapshot"
	"github.com/BAODAU/whop-wss-streaming/target"
)

// profileFanOutLimit bounds how many sub-listings of an aggregator page are
// fetched.
const profileFanOutLimit = 8

// Options configures one pipeline invocation.
type Options struct {
	// Timeout bounds each fetch and the render step. Default: 30s.
	Timeout time.Duration
	// DisableRender skips the headless browser step entirely.
	DisableRender bool
	UserAgent     string
	ChromePath    string
	Logger        *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) fetcherOptions() fetcher.Options {
	return fetcher.Options{
		UserAgent:  o.UserAgent,
		Timeout:    o.Timeout,
		ChromePath: o.ChromePath,
	}
}

// FetchListingSnapshot runs the whole pipeline for one target and returns a
// flat snapshot, or a profile snapshot when the target is an aggregator page.
//
// Only input-validation errors are surfaced; transport, render, and parse
// failures degrade to a snapshot built from whatever sources succeeded.
func FetchListingSnapshot(ctx context.Context, rawTarget string, opts Options) (*snapshot.Result, error) {
	client := fetcher.New(opts.fetcherOptions())
	return fetchListing(ctx, client, rawTarget, opts, true)
}

// fetchListing is the recursive core. allowProfileHop is true only for the
// top-level invocation, bounding profile recursion to exactly one level.
func fetchListing(ctx context.Context, client *fetcher.Client, rawTarget string, opts Options, allowProfileHop bool) (*snapshot.Result, error) {
	log := opts.logger()

	pageURL, slug, err := target.Normalize(rawTarget)
	if err != nil {
		return nil, err
	}
	log.Debug("listing fetch", "url", pageURL, "slug", slug)

	var renderedHTML, renderedFinalURL string
	if !opts.DisableRender {
		rendered, renderErr := fetcher.Render(ctx, pageURL, opts.fetcherOptions())
		if renderErr != nil {
			log.Warn("render failed, continuing with raw fetch only", "url", pageURL, "err", renderErr)
		} else {
			renderedHTML = rendered.HTML
			renderedFinalURL = rendered.FinalURL
		}
	}

	finalURL := pageURL
	if renderedFinalURL != "" {
		finalURL = renderedFinalURL
	}

	var rawHTML string
	var query url.Values
	res, fetchErr := client.Get(ctx, pageURL, nil)
	if fetchErr != nil {
		log.Warn("raw fetch failed, extraction degrades to rendered sources", "url", pageURL, "err", fetchErr)
	} else {
		rawHTML = res.Body
		query = res.Query
		if renderedFinalURL == "" {
			finalURL = res.FinalURL
		}
		log.Debug("raw fetch complete", "url", res.FinalURL, "status", res.StatusCode)
	}

	head := meta.Parse(rawHTML)
	tree := dom.Build(rawHTML)
	var renderedTree *dom.Tree
	if renderedHTML != "" {
		renderedTree = dom.Build(renderedHTML)
	}

	if allowProfileHop && resolvedSegmentCount(finalURL) <= 1 {
		if productURLs := profileProductURLs(rawHTML, finalURL); len(productURLs) > 0 {
			return fanOut(ctx, client, pageURL, finalURL, productURLs, opts)
		}
	}

	fallbackFaqs := flight.FAQEntries(rawHTML)
	featureSections := sections.Features(tree)
	faqSections := snapshot.MergeFaqSections(sections.Faqs(tree), fallbackFaqs)
	reviews := sections.Reviews(tree)
	pricingTree := tree
	if renderedTree != nil {
		pricingTree = renderedTree
	}
	pricing := sections.PricingOptions(pricingTree)

	products, orgs := schemaorg.Parse(head.JSONLD)

	pagePayload := fetchHydrationPayload(ctx, client, head.NextData, finalURL, query, log)
	summary := payload.Summarize(pagePayload)

	content := map[string]any{
		"hero":             summary.Hero,
		"feature_sections": summary.FeatureSections,
		"descriptions":     summary.Descriptions,
	}
	if reviews != nil {
		content["reviews"] = reviews
	}
	if len(orgs) > 0 {
		content["organizations"] = orgs
	}
	snapshot.PromoteFeatureSections(content, featureSections)
	snapshot.PromoteFaqSections(content, faqSections)

	features := snapshot.FlattenFeatures(summary.FeatureSections, featureSections)
	faqs := snapshot.FlattenFaqs(content, faqSections)

	flat := snapshot.NewFlat(finalURL, products, features, faqs, pricing)
	flat.Content = content
	return &snapshot.Result{Flat: flat}, nil
}

// fanOut fetches up to profileFanOutLimit sub-listings sequentially through
// the shared client, with recursion disabled, and wraps them in a profile
// snapshot. Child ordering follows discovery order in the page markup.
func fanOut(ctx context.Context, client *fetcher.Client, requestedURL, profileURL string, productURLs []string, opts Options) (*snapshot.Result, error) {
	log := opts.logger()
	username := ""
	if segments := urlSegments(profileURL); len(segments) > 0 {
		username = segments[0]
	}

	limit := len(productURLs)
	if limit > profileFanOutLimit {
		limit = profileFanOutLimit
	}
	children := make([]*snapshot.Flat, 0, limit)
	for _, productURL := range productURLs[:limit] {
		child, err := fetchListing(ctx, client, productURL, opts, false)
		if err != nil {
			log.Warn("sub-listing fetch failed", "url", productURL, "err", err)
			continue
		}
		if child.Flat != nil {
			children = append(children, child.Flat)
		}
	}

	return &snapshot.Result{Profile: &snapshot.Profile{
		RequestedURL:    requestedURL,
		ProfileURL:      profileURL,
		ProfileUsername: username,
		ProductCount:    len(productURLs),
		ProductURLs:     productURLs,
		Products:        children,
	}}, nil
}

// profileProductURLs extracts same-owner product links from an aggregator
// page: same-host anchors whose first path segment matches the profile's,
// normalized to their first two segments, deduplicated in discovery order.
func profileProductURLs(rawHTML, finalURL string) []string {
	base, err := url.Parse(finalURL)
	if err != nil || base.Host == "" {
		return nil
	}
	segments := urlSegments(finalURL)
	if len(segments) == 0 {
		return nil
	}
	username := strings.ToLower(segments[0])

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var results []string
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		absolute := base.ResolveReference(ref)
		if !strings.EqualFold(absolute.Host, base.Host) {
			return
		}
		pathSegments := target.PathSegments(absolute.Path)
		if len(pathSegments) < 2 || strings.ToLower(pathSegments[0]) != username {
			return
		}
		normalized := base.Scheme + "://" + base.Host + "/" + pathSegments[0] + "/" + pathSegments[1]
		if !seen[normalized] {
			seen[normalized] = true
			results = append(results, normalized)
		}
	})
	return results
}

// fetchHydrationPayload recovers the hydration payload: inline when the
// first hydration script parses, otherwise via one request to the framework
// data endpoint derived from the build id, forwarding the original query.
func fetchHydrationPayload(ctx context.Context, client *fetcher.Client, nextData, finalURL string, query url.Values, log *slog.Logger) any {
	if nextData == "" {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(nextData), &decoded); err != nil {
		log.Debug("hydration script did not parse", "err", err)
		return nil
	}
	buildID, _ := decoded["buildId"].(string)
	if buildID == "" {
		return nil
	}
	dataURL := nextDataURL(finalURL, buildID)
	if dataURL == "" {
		return nil
	}
	res, err := client.Get(ctx, dataURL, query)
	if err != nil || res.StatusCode != 200 {
		log.Debug("data endpoint fetch failed", "url", dataURL, "err", err)
		return nil
	}
	var candidate any
	if err := json.Unmarshal([]byte(res.Body), &candidate); err != nil {
		return nil
	}
	if node, ok := candidate.(map[string]any); ok {
		if props, ok := node["pageProps"]; ok && props != nil {
			return props
		}
		return node
	}
	return candidate
}

// nextDataURL derives the framework-internal data endpoint for a page.
func nextDataURL(finalURL, buildID string) string {
	parsed, err := url.Parse(finalURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if strings.HasSuffix(path, "/") && path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	suffix := "index"
	if path != "/" {
		suffix = strings.TrimLeft(path, "/")
	}
	return parsed.Scheme + "://" + parsed.Host + "/_next/data/" + buildID + "/" + suffix + ".json"
}

func resolvedSegmentCount(finalURL string) int {
	return len(urlSegments(finalURL))
}

func urlSegments(rawURL string) []string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return target.PathSegments(parsed.Path)
}
