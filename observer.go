package undo

// Observer is told about every recording and every navigation attempt,
// including the ones that did not move the cursor.
type Observer interface {
	Recorded(label string, squashed bool, truncated, length int)
	Navigated(direction Direction, moved bool, cursor, length int)
}

type noopObserver struct{}

func (noopObserver) Recorded(string, bool, int, int) {}

func (noopObserver) Navigated(Direction, bool, int, int) {}
