package space

import (
	"time"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

// ProjectProgress estimates where the peer's audio actually is now by
// projecting the reported position forward by the wall-clock time elapsed
// since it was reported. A paused player reports its exact position.
func ProjectProgress(player protocol.PlayerState, now time.Time) float64 {
	if !player.IsPlaying {
		return player.ProgressSeconds
	}
	driftSeconds := float64(now.UnixMilli()-player.TimestampMs) / 1000
	if driftSeconds < 0 {
		// A peer clock ahead of ours would project backwards; hold position
		// instead.
		driftSeconds = 0
	}
	return player.ProgressSeconds + driftSeconds
}
