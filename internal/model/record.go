package model

import (
	"strconv"
	"strings"
)

// VideoUnresolved is the placeholder stored in EventRecord.VideoRef when a
// video was detected on a card but no source URL could be captured. It is
// deliberately not a URL so downstream consumers cannot mistake it for one.
const VideoUnresolved = "VIDEO_DETECTED_NO_URL"

// NoLabel is the label assigned when a card carries no readable channel name.
const NoLabel = "No Label"

// EventRecord is one extracted calendar entry. Records are value types:
// produced once per scan pass and never mutated afterwards, except that the
// correlator may resolve VideoRef/VideoDuration on records where HasVideo is
// true and VideoRef is still the VideoUnresolved sentinel.
type EventRecord struct {
	Label            string   `json:"label"`
	Platforms        []string `json:"platforms"`
	Timestamp        string   `json:"timestamp"`
	Date             string   `json:"date"`
	Description      string   `json:"description"`
	ImageRef         string   `json:"image_ref,omitempty"`
	VideoRef         string   `json:"video_ref,omitempty"`
	HasVideo         bool     `json:"has_video"`
	VideoDuration    string   `json:"video_duration,omitempty"`
	IsNew            bool     `json:"is_new"`
	CardIndex        int      `json:"card_index"` // 1-based, dense within one scan
	EventURL         string   `json:"event_url,omitempty"`
	RawMarkupClasses string   `json:"raw_markup_classes,omitempty"` // diagnostic only
}

// VideoNeedsResolution reports whether the correlator may still assign a
// resource to this record.
func (r *EventRecord) VideoNeedsResolution() bool {
	return r.HasVideo && (r.VideoRef == "" || r.VideoRef == VideoUnresolved)
}

// VideoResource is one discovered video asset, captured outside the DOM walk
// (network observation, player registration). Resources accumulate into a
// session pool deduplicated by URL; AlreadyAssigned is set by the correlator.
type VideoResource struct {
	URL             string  `json:"url"`
	CaptureOrder    int     `json:"capture_order"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"` // <= 0 means unknown
	AlreadyAssigned bool    `json:"already_assigned"`
}

// HasDuration reports whether the resource carries usable duration info.
func (v *VideoResource) HasDuration() bool {
	return v.DurationSeconds > 0
}

// ParseDurationLabel converts a human-readable duration label into seconds.
// Accepted forms: "1:35", "0:30", "1:02:03", "45s", "45". Returns 0 and
// false when the label is empty or unparseable — callers treat that as
// "duration unknown", never as an error.
func ParseDurationLabel(label string) (float64, bool) {
	s := strings.TrimSpace(strings.ToLower(label))
	if s == "" {
		return 0, false
	}
	s = strings.TrimSuffix(s, "s")

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, false
		}
		var total float64
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 {
				return 0, false
			}
			total = total*60 + float64(n)
		}
		return total, total > 0
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
