package platform

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	return doc
}

func TestDetectPlatform_ClassToken(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"facebook versioned", `<span class="platformIcon _iconFacebook_1xk2p"></span>`, Facebook},
		{"instagram modifier", `<span class="platformIcon platformIcon--instagram"></span>`, Instagram},
		{"youtube versioned", `<span class="platformIcon _iconYoutube_99zzq"></span>`, YouTube},
		{"twitter modifier", `<span class="platformIcon platformIcon--twitter"></span>`, X},
		{"linkedin versioned", `<span class="platformIcon _iconLinkedin_0aa1b"></span>`, LinkedIn},
		{"no token", `<span class="platformIcon _iconMystery_123"></span>`, ""},
	}

	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.markup)
			got := d.DetectPlatform(doc.Find("span"))
			if got != tt.want {
				t.Errorf("DetectPlatform = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectPlatform_ClassTokenTakesPrecedence(t *testing.T) {
	// Class token says Facebook, SVG gradient says Instagram, aria-label says
	// YouTube. Strategy 1 must win.
	markup := `<span class="platformIcon _iconFacebook_1xk2p" aria-label="YouTube video">
		<svg><linearGradient>
			<stop stop-color="#feda75"/><stop stop-color="#d62976"/><stop stop-color="#4f5bd5"/>
		</linearGradient></svg>
	</span>`

	doc := parse(t, markup)
	if got := New().DetectPlatform(doc.Find("span")); got != Facebook {
		t.Errorf("DetectPlatform = %q, want %q (class token precedence)", got, Facebook)
	}
}

func TestDetectPlatform_SVGFingerprints(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			"instagram gradient needs all three hexes",
			`<span class="platformIcon"><svg>
				<stop stop-color="#feda75"/><stop stop-color="#d62976"/><stop stop-color="#4f5bd5"/>
			</svg></span>`,
			Instagram,
		},
		{
			"two gradient hexes are not enough",
			`<span class="platformIcon"><svg>
				<stop stop-color="#feda75"/><stop stop-color="#d62976"/>
			</svg></span>`,
			"",
		},
		{
			"youtube red fill",
			`<span class="platformIcon"><svg><path fill="#FF0000" d="M10 10"/></svg></span>`,
			YouTube,
		},
		{
			"youtube logo path prefix",
			`<span class="platformIcon"><svg><path d="M21.58 7.19c-.23-.86-.9-1.52-1.76-1.75"/></svg></span>`,
			YouTube,
		},
		{
			"facebook brand hex",
			`<span class="platformIcon"><svg><path fill="#1877f2" d="M5 5"/></svg></span>`,
			Facebook,
		},
		{
			"linkedin brand hex",
			`<span class="platformIcon"><svg><rect fill="#0a66c2"/></svg></span>`,
			LinkedIn,
		},
		{
			"x logo path prefix",
			`<span class="platformIcon"><svg><path d="M18.244 2.25h3.308l-7.227 8.26"/></svg></span>`,
			X,
		},
		{
			"no svg at all",
			`<span class="platformIcon"></span>`,
			"",
		},
	}

	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.markup)
			got := d.DetectPlatform(doc.Find("span"))
			if got != tt.want {
				t.Errorf("DetectPlatform = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectPlatform_AccessibleAttributes(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"aria-label", `<span class="platformIcon" aria-label="Share to Facebook"></span>`, Facebook},
		{"alt", `<img class="platformIcon" alt="instagram logo">`, Instagram},
		{"title", `<span class="platformIcon" title="LinkedIn"></span>`, LinkedIn},
		{"twitter maps to X", `<span class="platformIcon" aria-label="Twitter post"></span>`, X},
		{"bare x", `<span class="platformIcon" aria-label="X"></span>`, X},
		{"unrelated label", `<span class="platformIcon" aria-label="calendar"></span>`, ""},
	}

	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.markup)
			got := d.DetectPlatform(doc.Find(`[class*="platformIcon"]`))
			if got != tt.want {
				t.Errorf("DetectPlatform = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectPlatform_ConservativeFallback(t *testing.T) {
	d := New()

	doc := parse(t, `<span class="channelIcon facebook-badge"></span>`)
	// "icon" appears in the class list, so the fallback must refuse.
	if got := d.DetectPlatform(doc.Find("span")); got != "" {
		t.Errorf("DetectPlatform = %q, want empty (generic word present)", got)
	}

	doc = parse(t, `<span class="fb-chip facebook-brand"></span>`)
	if got := d.DetectPlatform(doc.Find("span")); got != Facebook {
		t.Errorf("DetectPlatform = %q, want %q", got, Facebook)
	}

	doc = parse(t, `<span class="social-facebook"></span>`)
	if got := d.DetectPlatform(doc.Find("span")); got != "" {
		t.Errorf("DetectPlatform = %q, want empty (social wrapper)", got)
	}
}

func TestDetectPlatforms_DeduplicatesPreservingOrder(t *testing.T) {
	markup := `<div id="c">
		<span class="platformIcon _iconFacebook_1xk2p"></span>
		<span class="platformIcon _iconInstagram_8smw2"></span>
		<span class="platformIcon _iconFacebook_1xk2p"></span>
	</div>`

	doc := parse(t, markup)
	got := New().DetectPlatforms(doc.Find("#c"))
	want := []string{Facebook, Instagram}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectPlatforms = %v, want %v", got, want)
	}
}

func TestDetectPlatforms_SkipsWrapperElements(t *testing.T) {
	// The wrapper shares the class prefix but is not an icon leaf; only the
	// inner leaf may contribute.
	markup := `<div id="c">
		<div class="platformIconWrapper facebook">
			<span class="platformIcon _iconYoutube_99zzq"></span>
		</div>
	</div>`

	doc := parse(t, markup)
	got := New().DetectPlatforms(doc.Find("#c"))
	want := []string{YouTube}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectPlatforms = %v, want %v", got, want)
	}
}

func TestDetectPlatforms_NoEvidence(t *testing.T) {
	doc := parse(t, `<div id="c"><p>plain text card</p></div>`)
	if got := New().DetectPlatforms(doc.Find("#c")); len(got) != 0 {
		t.Errorf("DetectPlatforms = %v, want empty", got)
	}
}

func TestInferFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  []string
	}{
		{"Weekly Email Digest", []string{Email}},
		{"MAIL blast", []string{Email}},
		{"Company Blog", []string{Blog}},
		{"Summer STORY", []string{Instagram}},
		{"new reel for launch", []string{Instagram}},
		{"Scheduled post", nil}, // bare "post" is inconclusive
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := InferFromLabel(tt.label)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InferFromLabel(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}
