package scc

import (
	"fmt"
	"sort"

	"github.com/mgpai22/ccconv/internal/timecode"
)

// cueTiming is the frame schedule of one cue. A load event of cost words
// starts at load and flips the display lead frames later, at start.
type cueTiming struct {
	start timecode.Frame
	end   timecode.Frame
	load  timecode.Frame
	cost  int64
	lead  int64
}

// scheduleCues fixes load frames in place.
//
// Without a minimum duration cues keep their times and loads may overlap;
// only a load that would begin before frame 0 or before the previous load
// delays the cue. With a minimum duration every load waits for the previous
// one to finish, every cue stays up at least minDur frames and no shorter
// than its own load, and an extension that runs into the next cue pushes
// that cue back. The next cue never replaces one before its minimum is up.
// Cues are never dropped.
func scheduleCues(ts []cueTiming, minDur int64) Diagnostics {
	var (
		diags Diagnostics
		floor timecode.Frame
	)
	for i := range ts {
		t := &ts[i]
		requested := t.start

		if minDur == 0 {
			t.load = max(t.start-t.lead, 0)
			if i > 0 {
				t.load = max(t.load, ts[i-1].load)
			}
			t.start = t.load + t.lead
			if t.end <= t.start {
				t.end = t.start + 1
			}
		} else {
			t.start = max(t.start, t.lead, floor)
			if i > 0 {
				prev := ts[i-1]
				t.start = max(t.start, prev.load+prev.cost+t.lead)
			}
			t.load = t.start - t.lead

			end := max(t.end, t.start+minDur, t.load+t.cost)
			floor = t.start + minDur
			if end > t.end && i+1 < len(ts) && end > ts[i+1].start {
				floor = end
			}
			t.end = end
		}

		if minDur == 0 && t.start != requested {
			diags = append(diags, cueDiagnostic(i, requested, fmt.Errorf(
				"%w: display delayed %d frames to fit the load",
				ErrOverrun,
				t.start-requested,
			)))
		}
	}
	return diags
}

type event struct {
	frame timecode.Frame
	cue   int
	words []Word
}

// buildEvents lays out load and clear events. A cue is cleared at its end
// frame unless the next load begins within two frames of it, in which case
// the next cue replaces it on screen.
func buildEvents(ts []cueTiming, cues []encodedCue, ch Channel) []event {
	erase := []Word{commandWord(ch, cmdEDM), commandWord(ch, cmdEDM)}
	events := make([]event, 0, 2*len(ts))
	for i, t := range ts {
		events = append(events, event{frame: t.load, cue: i, words: cues[i].words})
		if i+1 < len(ts) && t.end+int64(len(erase)) > ts[i+1].load {
			continue
		}
		events = append(events, event{frame: t.end, cue: i, words: erase})
	}
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].frame < events[b].frame
	})
	return events
}

// overruns reports every event that is still transmitting when the next
// one is due.
func overruns(events []event) Diagnostics {
	var diags Diagnostics
	for i := 1; i < len(events); i++ {
		prev, next := events[i-1], events[i]
		if done := prev.frame + int64(len(prev.words)); done > next.frame {
			diags = append(diags, cueDiagnostic(next.cue, next.frame, fmt.Errorf(
				"%w: event at %s still sending until %s",
				ErrOverrun,
				timecode.FromFrame(prev.frame),
				timecode.FromFrame(done),
			)))
		}
	}
	return diags
}
