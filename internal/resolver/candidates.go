package resolver

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/framecast/internal/window"
)

// probeOffsets is the window-offset order used when probing a periodic
// family. The current window is tried first, then the two preceding windows
// (listing services lag behind rotation), then the upcoming one (instances
// are sometimes published early).
var probeOffsets = [...]int64{0, -1, -2, +1}

// Candidates returns the ordered slug candidates for a periodic family at
// the given time. Each candidate is basePattern suffixed with a window-start
// timestamp.
func Candidates(basePattern string, width time.Duration, now time.Time) []string {
	start := window.Current(width, now)
	w := int64(width / time.Second)

	out := make([]string, 0, len(probeOffsets))
	for _, off := range probeOffsets {
		out = append(out, fmt.Sprintf("%s-%d", basePattern, start+off*w))
	}
	return out
}
