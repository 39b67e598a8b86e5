package player

// State represents the playback state machine.
//
// The state machine has five states with the following valid transitions:
//
//	┌──────────┐  play   ┌──────────┐ started ┌──────────┐  pause  ┌──────────┐
//	│   Idle   │────────▶│ Loading  │────────▶│ Playing  │────────▶│  Paused  │
//	└──────────┘         └──────────┘         └──────────┘◀────────└──────────┘
//	     ▲                    │                    │        resume       │
//	     │                    │ exit / timeout     │ error               │
//	     │                    ▼                    │                     │
//	     │               ┌──────────┐              │                     │
//	     ├───────────────│  Failed  │◀─────────────┘                     │
//	     │               └──────────┘                                    │
//	     └────────────────────── stop / ended (any state) ───────────────┘
//
// Valid transitions:
//   - Idle    → Loading (via Play)
//   - Loading → Playing (mpv reported playback-restart)
//   - Loading → Idle    (via Stop)
//   - Loading → Failed  (process exited or load timed out)
//   - Playing → Paused  (via Pause)
//   - Paused  → Playing (via Resume)
//   - Playing → Idle    (via Stop, or the track ended)
//   - Paused  → Idle    (via Stop)
//   - Playing → Failed  (process exited with an error)
//   - Failed  → Idle    (immediately; Failed is only observable as a transition)
//
// Toggle() cycles: Playing ↔ Paused (no-op otherwise)
//
// Invalid/No-op transitions (handled gracefully):
//   - Idle    → Paused  (ignored)
//   - Idle    → Idle    (ignored, Stop is idempotent)
//   - Paused  → Paused  (ignored)
//   - Playing → Playing (ignored, Play() stops first)
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
	Failed
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Loading:
		return "Loading"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is audible or can be resumed.
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused
}

// StateChange is published on every transition.
type StateChange struct {
	Previous State
	Current  State
}
