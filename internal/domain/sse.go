package domain

// RelayEvent is one record of the relay's own event stream.
// Exactly one of the fields is set: Content for a delta, Done for the
// terminal success marker, Error for a terminal failure.
type RelayEvent struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ContentEvent returns a content delta event.
func ContentEvent(text string) RelayEvent {
	return RelayEvent{Content: text}
}

// DoneEvent returns the terminal success event.
func DoneEvent() RelayEvent {
	return RelayEvent{Done: true}
}

// ErrorEvent returns the terminal failure event.
func ErrorEvent(message string) RelayEvent {
	return RelayEvent{Error: message}
}

// Terminal reports whether the event ends a relay session.
func (e RelayEvent) Terminal() bool {
	return e.Done || e.Error != ""
}

// UpstreamEventKind tags an UpstreamEvent.
type UpstreamEventKind int

const (
	UpstreamSkip UpstreamEventKind = iota
	UpstreamDelta
	UpstreamDone
	UpstreamFailure
)

// UpstreamEvent is the result of parsing one provider line. It is created per
// line and consumed immediately.
type UpstreamEvent struct {
	Kind UpstreamEventKind
	// Text holds the delta for UpstreamDelta and the provider message for
	// UpstreamFailure.
	Text   string
	Reason SkipReason
}
