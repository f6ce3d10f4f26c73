package undo

// Operation names reported in HistoryLogEvent.Op.
const (
	OpRecord   = "record"
	OpUndo     = "undo"
	OpRedo     = "redo"
	OpReaction = "reaction"
	OpRule     = "rule"
	OpHook     = "hook"
	OpIgnored  = "ignored"
	OpUnbound  = "unbound"
)

// HistoryLogEvent describes one history operation for logging. Err is set for
// failures that were absorbed instead of returned.
type HistoryLogEvent struct {
	Op        string
	Label     string
	EntryID   string
	Cursor    int
	Length    int
	Squashed  bool
	Truncated int
	Reaction  string
	Err       error
}

// Logger records history events.
type Logger interface {
	LogHistory(HistoryLogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(HistoryLogEvent)

// LogHistory implements Logger.
func (f LoggerFunc) LogHistory(event HistoryLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogHistory(HistoryLogEvent) {}
