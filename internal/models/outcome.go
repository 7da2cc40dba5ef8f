package models

// HaltReason explains why a flow stopped without an error.
type HaltReason int

const (
	Continue HaltReason = iota
	HaltNoPlaylists
	HaltNoTracks
)

func (h HaltReason) String() string {
	switch h {
	case HaltNoPlaylists:
		return "No playlists found on this account."
	case HaltNoTracks:
		return "This playlist has no tracks"
	default:
		return ""
	}
}

// Outcome is either a value to continue with or an informational halt.
type Outcome[T any] struct {
	Value  T
	Reason HaltReason
}

// Proceed wraps a value in a continuing [Outcome].
func Proceed[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Reason: Continue}
}

// Halt builds a halted [Outcome] with the zero value.
func Halt[T any](reason HaltReason) Outcome[T] {
	return Outcome[T]{Reason: reason}
}

// Halted reports whether the flow should stop and show [HaltReason.String].
func (o Outcome[T]) Halted() bool {
	return o.Reason != Continue
}
