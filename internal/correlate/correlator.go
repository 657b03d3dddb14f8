// Package correlate matches discovered video resources to extracted event
// records. The pairing the site exposes is loose — players mount after the
// cards render and network captures arrive out of band — so assignment is a
// greedy, single-pass heuristic, not a global optimum bipartite matching.
package correlate

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/sableworks/calgrab/internal/model"
)

// DefaultDurationTolerance is the largest absolute difference, in seconds,
// between a record's reported duration and a resource's duration that still
// counts as a duration match. Beyond it the pairing would be a guess.
const DefaultDurationTolerance = 15.0

// Correlator assigns pool resources to video-flagged records.
type Correlator struct {
	tolerance float64
	logger    *slog.Logger
}

// New creates a correlator with the default duration tolerance.
func New(logger *slog.Logger) *Correlator {
	return &Correlator{tolerance: DefaultDurationTolerance, logger: logger}
}

// Assign walks records in order and resolves VideoRef on each video-flagged
// record that still carries the unresolved sentinel, consuming at most one
// unassigned resource per record. Preference: duration proximity when both
// sides know their duration, positional capture order otherwise. Records
// left unresolved are a normal outcome. Returns the number of assignments.
//
// Assign mutates records in place and marks consumed resources
// AlreadyAssigned; it runs to completion without preemption.
func (c *Correlator) Assign(records []model.EventRecord, pool []*model.VideoResource) int {
	assigned := 0
	// videoPos is the 0-based position among video-flagged records;
	// lastOrder is the capture order of the last positional assignment.
	videoPos := 0
	lastOrder := -1

	for i := range records {
		r := &records[i]
		if !r.HasVideo {
			continue
		}
		pos := videoPos
		videoPos++

		if !r.VideoNeedsResolution() {
			continue
		}

		recDur, recHasDur := model.ParseDurationLabel(r.VideoDuration)

		res := c.byDuration(pool, recDur, recHasDur)
		if res == nil {
			res = c.byPosition(pool, pos, lastOrder, recHasDur)
			if res != nil {
				lastOrder = res.CaptureOrder
			}
		}
		if res == nil {
			continue // pool exhausted or nothing eligible — sentinel stays
		}

		res.AlreadyAssigned = true
		r.VideoRef = res.URL
		if r.VideoDuration == "" && res.HasDuration() {
			r.VideoDuration = formatSeconds(res.DurationSeconds)
		}
		assigned++

		c.logger.Debug("video resolved",
			"card_index", r.CardIndex,
			"url", res.URL,
			"capture_order", res.CaptureOrder,
		)
	}

	return assigned
}

// byDuration picks the eligible resource with the smallest absolute duration
// difference, provided both durations are known and the best difference is
// within tolerance. Ties break by encounter order.
func (c *Correlator) byDuration(pool []*model.VideoResource, recDur float64, recHasDur bool) *model.VideoResource {
	if !recHasDur {
		return nil
	}
	var best *model.VideoResource
	bestDiff := math.Inf(1)
	for _, res := range pool {
		if res.AlreadyAssigned || !res.HasDuration() {
			continue
		}
		diff := math.Abs(res.DurationSeconds - recDur)
		if diff < bestDiff {
			best = res
			bestDiff = diff
		}
	}
	if best == nil || bestDiff > c.tolerance {
		return nil
	}
	return best
}

// byPosition picks the eligible resource whose capture order most closely
// follows the record's position among video-flagged records, while keeping
// assignments in increasing capture order. Duration-bearing resources are
// only considered when the record itself reports no duration — pairing two
// known-but-distant durations would contradict the evidence.
func (c *Correlator) byPosition(pool []*model.VideoResource, pos, lastOrder int, recHasDur bool) *model.VideoResource {
	var best *model.VideoResource
	bestDist := math.MaxInt
	for _, res := range pool {
		if res.AlreadyAssigned {
			continue
		}
		if recHasDur && res.HasDuration() {
			continue
		}
		if res.CaptureOrder <= lastOrder {
			continue
		}
		dist := res.CaptureOrder - pos
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best = res
			bestDist = dist
		}
	}
	return best
}

func formatSeconds(sec float64) string {
	total := int(math.Round(sec))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
