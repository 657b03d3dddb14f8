// Package platform infers canonical platform names from icon markup.
//
// The target site ships versioned, hash-suffixed CSS classes and inlined SVG
// logos, so detection is a best-effort chain of independent strategies rather
// than a single stable selector. Strategies run in fixed priority order per
// candidate icon; the first non-empty answer wins. Absence of evidence yields
// an empty result, never a guess.
package platform

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Canonical platform names.
const (
	Facebook  = "Facebook"
	Instagram = "Instagram"
	YouTube   = "YouTube"
	X         = "X"
	LinkedIn  = "LinkedIn"
	Email     = "Email"
	Blog      = "Blog"
)

// defaultIconSelector marks actual platform icon leaves. Wrapper and
// container nodes share the "platformIcon" prefix but are filtered out by
// isIconLeaf.
const defaultIconSelector = `[class*="platformIcon"], [class*="channelIcon"]`

// classTokens are known class substrings unique to each platform's icon
// styling. The hash suffixes rotate between site deploys, so the tokens stop
// before the hash.
var classTokens = []struct {
	token    string
	platform string
}{
	{"_iconFacebook_", Facebook},
	{"platformIcon--facebook", Facebook},
	{"_iconInstagram_", Instagram},
	{"platformIcon--instagram", Instagram},
	{"_iconYoutube_", YouTube},
	{"platformIcon--youtube", YouTube},
	{"_iconTwitterX_", X},
	{"platformIcon--twitter", X},
	{"_iconLinkedin_", LinkedIn},
	{"platformIcon--linkedin", LinkedIn},
	{"_iconEmail_", Email},
	{"platformIcon--email", Email},
	{"_iconBlog_", Blog},
	{"platformIcon--blog", Blog},
}

// svgPathPrefixes are literal path-data openings of each platform's published
// logo. They must match the site's current rendering byte-for-byte — a known
// fragility, kept deliberately because the colors below catch most redraws.
var svgPathPrefixes = []struct {
	prefix   string
	platform string
}{
	{"M24 12.073", Facebook},
	{"M12 2.163", Instagram},
	{"M21.58 7.19", YouTube},
	{"M18.244 2.25", X},
	{"M20.447 20.452", LinkedIn},
}

// Brand color signatures. Instagram is identified by its gradient: all three
// hexes must appear simultaneously.
var (
	instagramGradient = []string{"#feda75", "#d62976", "#4f5bd5"}
	youtubeRed        = "#ff0000"
	facebookBlue      = "#1877f2"
	linkedinBlue      = "#0a66c2"
)

// attrKeywords match against aria-label/alt/title, case-insensitive.
var attrKeywords = []struct {
	keyword  string
	platform string
}{
	{"facebook", Facebook},
	{"instagram", Instagram},
	{"youtube", YouTube},
	{"twitter", X},
	{"linkedin", LinkedIn},
	{"email", Email},
	{"blog", Blog},
}

// fallbackNames drive the conservative class-substring fallback.
var fallbackNames = []struct {
	name     string
	platform string
}{
	{"facebook", Facebook},
	{"instagram", Instagram},
	{"youtube", YouTube},
	{"twitter", X},
	{"linkedin", LinkedIn},
}

// strategy is one pure detection attempt: icon element in, platform name or
// empty string out. Strategies never combine scores; the chain stops at the
// first non-empty result.
type strategy func(icon *goquery.Selection) string

// Detector runs the strategy chain over candidate icon elements.
type Detector struct {
	iconSelector string
	chain        []strategy
}

// New returns a detector with the built-in icon selector.
func New() *Detector {
	return NewWithSelector(defaultIconSelector)
}

// NewWithSelector returns a detector using a custom icon-leaf selector,
// typically supplied by a selector profile.
func NewWithSelector(iconSelector string) *Detector {
	if iconSelector == "" {
		iconSelector = defaultIconSelector
	}
	return &Detector{
		iconSelector: iconSelector,
		chain: []strategy{
			matchClassToken,
			matchSVGFingerprint,
			matchAccessibleAttr,
			matchConservativeClass,
		},
	}
}

// DetectPlatforms finds all platform icons under container and returns the
// detected platform names, deduplicated preserving first-seen order. An
// empty result means no icon evidence, not an error.
func (d *Detector) DetectPlatforms(container *goquery.Selection) []string {
	var found []string
	seen := make(map[string]bool)

	container.Find(d.iconSelector).Each(func(_ int, icon *goquery.Selection) {
		if !isIconLeaf(icon) {
			return
		}
		p := d.DetectPlatform(icon)
		if p != "" && !seen[p] {
			seen[p] = true
			found = append(found, p)
		}
	})

	return found
}

// DetectPlatform runs the strategy chain against a single icon element and
// returns the first confident match, or empty when nothing matches.
func (d *Detector) DetectPlatform(icon *goquery.Selection) string {
	if icon == nil || icon.Length() == 0 {
		return ""
	}
	for _, try := range d.chain {
		if p := try(icon); p != "" {
			return p
		}
	}
	return ""
}

// InferFromLabel maps free-text labels to a platform when no icon evidence
// exists at all. A bare "post" keyword is deliberately inconclusive.
func InferFromLabel(label string) []string {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "email"), strings.Contains(l, "mail"):
		return []string{Email}
	case strings.Contains(l, "blog"):
		return []string{Blog}
	case strings.Contains(l, "story"), strings.Contains(l, "reel"):
		return []string{Instagram}
	}
	return nil
}

// isIconLeaf excludes wrapper/container elements that share the icon class
// prefix but hold no platform identity of their own.
func isIconLeaf(icon *goquery.Selection) bool {
	class := strings.ToLower(icon.AttrOr("class", ""))
	for _, generic := range []string{"wrapper", "container", "group", "list", "row"} {
		if strings.Contains(class, generic) {
			return false
		}
	}
	return true
}

// matchClassToken is strategy 1: exact versioned class-token match.
func matchClassToken(icon *goquery.Selection) string {
	class := icon.AttrOr("class", "")
	for _, t := range classTokens {
		if strings.Contains(class, t.token) {
			return t.platform
		}
	}
	return ""
}

// matchSVGFingerprint is strategy 2: inspect embedded vector markup for
// literal path-data or brand-color substrings.
func matchSVGFingerprint(icon *goquery.Selection) string {
	svg := icon.Find("svg")
	if icon.Is("svg") {
		svg = icon
	}
	if svg.Length() == 0 {
		return ""
	}

	markup, err := goquery.OuterHtml(svg.First())
	if err != nil || markup == "" {
		return ""
	}
	lower := strings.ToLower(markup)

	for _, p := range svgPathPrefixes {
		if strings.Contains(markup, p.prefix) {
			return p.platform
		}
	}

	gradient := true
	for _, hex := range instagramGradient {
		if !strings.Contains(lower, hex) {
			gradient = false
			break
		}
	}
	if gradient {
		return Instagram
	}
	if strings.Contains(lower, youtubeRed) {
		return YouTube
	}
	if strings.Contains(lower, facebookBlue) {
		return Facebook
	}
	if strings.Contains(lower, linkedinBlue) {
		return LinkedIn
	}
	return ""
}

// matchAccessibleAttr is strategy 3: case-insensitive keyword match against
// aria-label, alt and title.
func matchAccessibleAttr(icon *goquery.Selection) string {
	for _, attr := range []string{"aria-label", "alt", "title"} {
		val := strings.ToLower(icon.AttrOr(attr, ""))
		if val == "" {
			continue
		}
		if val == "x" || strings.Contains(val, "x (formerly") {
			return X
		}
		for _, k := range attrKeywords {
			if strings.Contains(val, k.keyword) {
				return k.platform
			}
		}
	}
	return ""
}

// matchConservativeClass is strategy 4: a plain platform-name substring on
// the class list, accepted only when generic words are absent so wrapper
// elements never match.
func matchConservativeClass(icon *goquery.Selection) string {
	class := strings.ToLower(icon.AttrOr("class", ""))
	if class == "" || strings.Contains(class, "icon") || strings.Contains(class, "social") {
		return ""
	}
	for _, f := range fallbackNames {
		if strings.Contains(class, f.name) {
			return f.platform
		}
	}
	return ""
}
