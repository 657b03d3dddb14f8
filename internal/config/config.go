package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Port         int
	LogLevel     string
	TargetHost   string // scans abort when the page host does not match
	ProfilePath  string // optional selector profile override (YAML)
	ExportDir    string
	SettleMillis int // layout settling delay after scroll/expand
	NatsURL      string
	NatsToken    string
}

func Load() Config {
	return Config{
		Port:         envInt("CALGRAB_PORT", 8764),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		TargetHost:   envStr("CALGRAB_TARGET_HOST", "app.socialplanner.io"),
		ProfilePath:  envStr("CALGRAB_PROFILE", ""),
		ExportDir:    envStr("CALGRAB_EXPORT_DIR", "./export"),
		SettleMillis: envInt("CALGRAB_SETTLE_MS", 350),
		NatsURL:      envStr("NATS_URL", ""),
		NatsToken:    envStr("NATS_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Profile holds the selectors and marker tokens the extractor depends on.
// The target site versions its class names, so everything fragile lives
// here, overridable from a YAML file without a rebuild.
type Profile struct {
	HeaderCells      string   `yaml:"header_cells"`
	DayColumns       string   `yaml:"day_columns"`
	EventCards       string   `yaml:"event_cards"`
	ChannelLabel     string   `yaml:"channel_label"`
	CardHeader       string   `yaml:"card_header"`
	ContentSelectors []string `yaml:"content_selectors"`
	ExpandAffordance string   `yaml:"expand_affordance"`
	ExpandSuffix     string   `yaml:"expand_suffix"`
	NewMarker        string   `yaml:"new_marker"`
	PlayOverlay      string   `yaml:"play_overlay"`
	VideoContainer   string   `yaml:"video_container"`
	DurationBadge    string   `yaml:"duration_badge"`
	EventLink        string   `yaml:"event_link"`
	IconSelector     string   `yaml:"icon_selector"`
	MinDescription   int      `yaml:"min_description"`
	AffordanceLabels []string `yaml:"affordance_labels"`
}

// DefaultProfile returns the compiled-in selectors for the current site
// markup version.
func DefaultProfile() Profile {
	return Profile{
		HeaderCells:  `[class*="calendarHeader"] [class*="headerCell"]`,
		DayColumns:   `[class*="dayColumn"]`,
		EventCards:   `[class*="eventCard"], [class*="postCard"]`,
		ChannelLabel: `[class*="channelName"], [class*="accountName"]`,
		CardHeader:   `[class*="cardHeader"]`,
		ContentSelectors: []string{
			`[class*="postContent"]`,
			`[class*="cardBody"] p`,
			`[class*="caption"]`,
		},
		ExpandAffordance: `[class*="seeMore"], button[class*="expand"]`,
		ExpandSuffix:     "See more",
		NewMarker:        `[class*="newBadge"]`,
		PlayOverlay:      `[class*="playButton"], [class*="playOverlay"]`,
		VideoContainer:   `[class*="videoPlayer"], [class*="videoWrapper"]`,
		DurationBadge:    `[class*="durationBadge"], [class*="videoDuration"]`,
		EventLink:        `a[class*="cardLink"], a[href*="/posts/"]`,
		IconSelector:     `[class*="platformIcon"], [class*="channelIcon"]`,
		MinDescription:   20,
		AffordanceLabels: []string{"See more", "Edit", "Duplicate", "Delete", "Preview"},
	}
}

// LoadProfile reads a selector profile from a YAML file, filling any field
// left empty from the defaults. An empty path returns the defaults as-is.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}

	var override Profile
	if err := yaml.Unmarshal(b, &override); err != nil {
		return p, fmt.Errorf("parse profile: %w", err)
	}
	merge(&p, override)
	return p, nil
}

func merge(base *Profile, o Profile) {
	if o.HeaderCells != "" {
		base.HeaderCells = o.HeaderCells
	}
	if o.DayColumns != "" {
		base.DayColumns = o.DayColumns
	}
	if o.EventCards != "" {
		base.EventCards = o.EventCards
	}
	if o.ChannelLabel != "" {
		base.ChannelLabel = o.ChannelLabel
	}
	if o.CardHeader != "" {
		base.CardHeader = o.CardHeader
	}
	if len(o.ContentSelectors) > 0 {
		base.ContentSelectors = o.ContentSelectors
	}
	if o.ExpandAffordance != "" {
		base.ExpandAffordance = o.ExpandAffordance
	}
	if o.ExpandSuffix != "" {
		base.ExpandSuffix = o.ExpandSuffix
	}
	if o.NewMarker != "" {
		base.NewMarker = o.NewMarker
	}
	if o.PlayOverlay != "" {
		base.PlayOverlay = o.PlayOverlay
	}
	if o.VideoContainer != "" {
		base.VideoContainer = o.VideoContainer
	}
	if o.DurationBadge != "" {
		base.DurationBadge = o.DurationBadge
	}
	if o.EventLink != "" {
		base.EventLink = o.EventLink
	}
	if o.IconSelector != "" {
		base.IconSelector = o.IconSelector
	}
	if o.MinDescription > 0 {
		base.MinDescription = o.MinDescription
	}
	if len(o.AffordanceLabels) > 0 {
		base.AffordanceLabels = o.AffordanceLabels
	}
}
