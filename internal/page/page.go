// Package page is the boundary between the extraction pipeline and the host
// page. Extraction logic never touches the network or a browser directly; it
// receives a Page and asks it for a parsed document plus a handful of layout
// side effects. That keeps the pipeline pure and lets tests inject static
// markup with zero-delay settling.
package page

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrWrongSite is returned when the page being scanned is not the target
// application. It is the single fatal precondition of a scan pass.
var ErrWrongSite = errors.New("page is not the target site")

// Page is one reachable host page. Document is the request/response boundary
// of the pass; the remaining methods are scripted side effects with no
// observable return value beyond an error when the page is unreachable.
type Page interface {
	// URL returns the page address, used for the target-site precondition.
	URL() string
	// Document returns the rendered DOM. Failure here aborts the pass.
	Document(ctx context.Context) (*goquery.Document, error)
	// ScrollColumn scrolls a day column to its extent and back so lazily
	// rendered cards mount. Best-effort.
	ScrollColumn(ctx context.Context, index int) error
	// ExpandTruncated activates any "expand truncated text" affordance
	// matching selector. Best-effort.
	ExpandTruncated(ctx context.Context, selector string) error
	// Settle waits a fixed layout-settling interval. A fixed pause rather
	// than polled completion — simplicity over precision.
	Settle(ctx context.Context) error
}

// CheckHost verifies that rawURL points at the expected host. Subdomain-less
// comparison is deliberate: the site serves the calendar from one host only.
func CheckHost(rawURL, host string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse page url: %w", err)
	}
	if !strings.EqualFold(u.Hostname(), host) {
		return fmt.Errorf("%w: got %q, want %q", ErrWrongSite, u.Hostname(), host)
	}
	return nil
}

// HTTPPage fetches a rendered HTML snapshot over HTTP. Snapshots are already
// fully realized, so the scroll and expand triggers are no-ops; Settle still
// honors the configured delay so timing behavior matches a live page driver.
type HTTPPage struct {
	url    string
	client *http.Client
	settle time.Duration

	doc *goquery.Document // fetched once per pass
}

// NewHTTP creates a page backed by an HTTP fetch of rendered markup.
func NewHTTP(rawURL string, client *http.Client, settle time.Duration) *HTTPPage {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPPage{url: rawURL, client: client, settle: settle}
}

func (p *HTTPPage) URL() string { return p.url }

func (p *HTTPPage) Document(ctx context.Context) (*goquery.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	p.doc = doc
	return doc, nil
}

func (p *HTTPPage) ScrollColumn(ctx context.Context, index int) error { return nil }

func (p *HTTPPage) ExpandTruncated(ctx context.Context, selector string) error { return nil }

func (p *HTTPPage) Settle(ctx context.Context) error {
	if p.settle <= 0 {
		return nil
	}
	select {
	case <-time.After(p.settle):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Static is an in-memory page built from literal markup, used by tests and
// by the scan endpoint when the caller posts captured HTML directly.
type Static struct {
	Addr   string
	Markup string
}

func NewStatic(addr, markup string) *Static {
	return &Static{Addr: addr, Markup: markup}
}

func (s *Static) URL() string { return s.Addr }

func (s *Static) Document(ctx context.Context) (*goquery.Document, error) {
	if strings.TrimSpace(s.Markup) == "" {
		return nil, errors.New("empty page markup")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(s.Markup))
}

func (s *Static) ScrollColumn(ctx context.Context, index int) error { return nil }

func (s *Static) ExpandTruncated(ctx context.Context, selector string) error { return nil }

func (s *Static) Settle(ctx context.Context) error { return nil }
