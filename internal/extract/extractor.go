// Package extract walks a rendered calendar page and produces one structured
// record per visible event card.
//
// Extraction is best-effort by design: every field derivation has a safe
// default and partial data always beats no data. The only fatal condition is
// failing to reach the page document at all.
package extract

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sableworks/calgrab/internal/config"
	"github.com/sableworks/calgrab/internal/model"
	"github.com/sableworks/calgrab/internal/page"
	"github.com/sableworks/calgrab/internal/platform"
)

// timestampRe matches time-of-day fragments like "9:00am", "09:30 PM".
var timestampRe = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s?(?:am|pm)\b`)

// Extractor turns a page into EventRecords using a selector profile.
type Extractor struct {
	profile  config.Profile
	detector *platform.Detector
	logger   *slog.Logger
}

func New(profile config.Profile, logger *slog.Logger) *Extractor {
	return &Extractor{
		profile:  profile,
		detector: platform.NewWithSelector(profile.IconSelector),
		logger:   logger,
	}
}

// Extract realizes the page content (scroll columns, expand truncated text,
// settle) and returns a lazy, finite, single-use sequence of records in page
// order. CardIndex assignment is fixed when Extract returns; ranging the
// sequence derives one record per card. The returned error is non-nil only
// when the page document cannot be obtained.
func (e *Extractor) Extract(ctx context.Context, p page.Page) (iter.Seq[model.EventRecord], error) {
	doc, err := p.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("page access: %w", err)
	}

	// Force lazily rendered cards to mount before the card set is fixed.
	// The column count comes from the initial render; the document is
	// re-obtained afterwards so freshly mounted cards are visible.
	cols := doc.Find(e.profile.DayColumns).Length()
	for i := 0; i < cols; i++ {
		if err := p.ScrollColumn(ctx, i); err != nil {
			e.logger.Debug("scroll column failed", "column", i, "error", err)
		}
	}
	if err := p.Settle(ctx); err != nil {
		return nil, fmt.Errorf("page access: %w", err)
	}
	if doc, err = p.Document(ctx); err != nil {
		return nil, fmt.Errorf("page access: %w", err)
	}

	headers := doc.Find(e.profile.HeaderCells)
	columns := doc.Find(e.profile.DayColumns)
	dates := e.columnDates(headers, columns)
	cards := doc.Find(e.profile.EventCards)

	// Expand "See more" affordances so description text is readable, then
	// re-read the settled DOM. The card set stays fixed: the re-read is
	// only adopted while it still shows the same cards, otherwise the
	// pre-expansion snapshot is kept.
	if err := p.ExpandTruncated(ctx, e.profile.ExpandAffordance); err != nil {
		e.logger.Debug("expand affordance failed", "error", err)
	}
	if err := p.Settle(ctx); err != nil {
		return nil, fmt.Errorf("page access: %w", err)
	}
	if expanded, err := p.Document(ctx); err == nil {
		if c := expanded.Find(e.profile.EventCards); c.Length() == cards.Length() {
			headers = expanded.Find(e.profile.HeaderCells)
			columns = expanded.Find(e.profile.DayColumns)
			dates = e.columnDates(headers, columns)
			cards = c
		}
	}

	e.logger.Info("card set fixed",
		"cards", cards.Length(),
		"columns", columns.Length(),
		"headers", headers.Length(),
	)

	consumed := false
	seq := func(yield func(model.EventRecord) bool) {
		if consumed {
			return
		}
		consumed = true
		cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
			return yield(e.record(card, i+1, dates))
		})
	}
	return seq, nil
}

// Scan runs Extract and collects the sequence into a slice.
func (e *Extractor) Scan(ctx context.Context, p page.Page) ([]model.EventRecord, error) {
	seq, err := e.Extract(ctx, p)
	if err != nil {
		return nil, err
	}
	var records []model.EventRecord
	for r := range seq {
		records = append(records, r)
	}
	return records, nil
}

// columnDates maps each card node to the date label of its day column.
// Header/column count mismatches are tolerated: missing indices resolve to
// the empty string.
type columnDates struct {
	byNode   map[*html.Node]string
	fallback string // first available header date
}

func (e *Extractor) columnDates(headers, columns *goquery.Selection) columnDates {
	d := columnDates{byNode: make(map[*html.Node]string)}

	labels := make([]string, headers.Length())
	headers.Each(func(i int, h *goquery.Selection) {
		labels[i] = strings.TrimSpace(h.Text())
		if d.fallback == "" && labels[i] != "" {
			d.fallback = labels[i]
		}
	})

	columns.Each(func(i int, col *goquery.Selection) {
		date := ""
		if i < len(labels) {
			date = labels[i]
		}
		col.Find(e.profile.EventCards).Each(func(_ int, card *goquery.Selection) {
			for _, n := range card.Nodes {
				d.byNode[n] = date
			}
		})
	})
	return d
}

func (d columnDates) lookup(card *goquery.Selection) string {
	for _, n := range card.Nodes {
		if date, ok := d.byNode[n]; ok && date != "" {
			return date
		}
	}
	return d.fallback
}

// record derives one EventRecord from a card subtree. Each derivation is
// independent and recovers to its default when the markup disappoints.
func (e *Extractor) record(card *goquery.Selection, index int, dates columnDates) model.EventRecord {
	label := e.label(card)

	platforms := e.detector.DetectPlatforms(card)
	if len(platforms) == 0 {
		platforms = platform.InferFromLabel(label)
	}

	hasVideo, videoRef, videoDur := e.video(card)

	return model.EventRecord{
		Label:            label,
		Platforms:        platforms,
		Timestamp:        e.timestamp(card),
		Date:             dates.lookup(card),
		Description:      e.description(card),
		ImageRef:         e.imageRef(card),
		VideoRef:         videoRef,
		HasVideo:         hasVideo,
		VideoDuration:    videoDur,
		IsNew:            card.Is(e.profile.NewMarker) || card.Find(e.profile.NewMarker).Length() > 0,
		CardIndex:        index,
		EventURL:         e.eventURL(card),
		RawMarkupClasses: card.AttrOr("class", ""),
	}
}

func (e *Extractor) label(card *goquery.Selection) string {
	if t := strings.TrimSpace(card.Find(e.profile.ChannelLabel).First().Text()); t != "" {
		return t
	}
	if t := firstTextNode(card); t != "" {
		return t
	}
	return model.NoLabel
}

func (e *Extractor) timestamp(card *goquery.Selection) string {
	scope := card.Find(e.profile.CardHeader)
	if scope.Length() == 0 {
		scope = card
	}
	return timestampRe.FindString(scope.Text())
}

func (e *Extractor) description(card *goquery.Selection) string {
	for _, sel := range e.profile.ContentSelectors {
		found := ""
		card.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := e.stripAffordanceSuffix(strings.TrimSpace(s.Text()))
			if len(t) >= e.profile.MinDescription {
				found = t
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	// Fallback: the single longest text block anywhere in the card, skipping
	// bare timestamps and UI affordance labels.
	longest := ""
	card.Find("*").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		t := e.stripAffordanceSuffix(strings.TrimSpace(s.Text()))
		if t == "" || e.isAffordanceLabel(t) || isBareTimestamp(t) {
			return
		}
		if len(t) > len(longest) {
			longest = t
		}
	})
	return longest
}

func (e *Extractor) stripAffordanceSuffix(text string) string {
	suffix := e.profile.ExpandSuffix
	if suffix == "" {
		return text
	}
	lower := strings.ToLower(text)
	if idx := strings.LastIndex(lower, strings.ToLower(suffix)); idx >= 0 && idx+len(suffix) == len(text) {
		text = text[:idx]
	}
	return strings.TrimRight(strings.TrimSpace(text), ".…")
}

func (e *Extractor) isAffordanceLabel(text string) bool {
	for _, l := range e.profile.AffordanceLabels {
		if strings.EqualFold(text, l) {
			return true
		}
	}
	return false
}

func isBareTimestamp(text string) bool {
	return timestampRe.FindString(text) == text
}

func (e *Extractor) imageRef(card *goquery.Selection) string {
	ref := ""
	card.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src"} {
			src := strings.TrimSpace(img.AttrOr(attr, ""))
			if src != "" && !strings.HasPrefix(src, "data:") {
				ref = src
				return false
			}
		}
		return true
	})
	return ref
}

// video reports whether the card carries a video, its source URL when one is
// resolvable, and any human-readable duration badge. A detected video with
// no resolvable source gets the unresolved sentinel for the correlator.
func (e *Extractor) video(card *goquery.Selection) (bool, string, string) {
	native := card.Find("video")
	detected := native.Length() > 0 ||
		card.Find(e.profile.PlayOverlay).Length() > 0 ||
		card.Find(e.profile.VideoContainer).Length() > 0
	if !detected {
		return false, "", ""
	}

	ref := strings.TrimSpace(native.First().AttrOr("src", ""))
	if ref == "" {
		ref = strings.TrimSpace(native.Find("source").First().AttrOr("src", ""))
	}
	if ref == "" || strings.HasPrefix(ref, "blob:") {
		ref = model.VideoUnresolved
	}

	dur := strings.TrimSpace(card.Find(e.profile.DurationBadge).First().Text())
	return true, ref, dur
}

func (e *Extractor) eventURL(card *goquery.Selection) string {
	if href := card.Find(e.profile.EventLink).First().AttrOr("href", ""); href != "" {
		return href
	}
	if card.Is("a") {
		return card.AttrOr("href", "")
	}
	return ""
}

// firstTextNode returns the first non-whitespace text node under the
// selection, in document order.
func firstTextNode(s *goquery.Selection) string {
	var walk func(n *html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				return t
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := walk(c); t != "" {
				return t
			}
		}
		return ""
	}
	for _, n := range s.Nodes {
		if t := walk(n); t != "" {
			return t
		}
	}
	return ""
}
