package playground

import "sync"

// Slot names an image surface.
type Slot int

const (
	SlotPrimary Slot = iota
	SlotSecondary
)

func (s Slot) String() string {
	switch s {
	case SlotPrimary:
		return "primary"
	case SlotSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Surfaces receives the display updates of a run.
type Surfaces interface {
	// ClearAll empties every image surface and the error surface.
	ClearAll()
	SetImage(slot Slot, src string)
	SetError(msg string)
}

// Board is an in-memory Surfaces. Readers may call Snapshot concurrently
// with a run writing to it.
type Board struct {
	mu        sync.RWMutex
	primary   string
	secondary string
	errText   string
}

// BoardSnapshot is a copy of a Board's contents.
type BoardSnapshot struct {
	Primary   string
	Secondary string
	Error     string
}

// Empty reports whether nothing is displayed.
func (s BoardSnapshot) Empty() bool {
	return s.Primary == "" && s.Secondary == "" && s.Error == ""
}

func (b *Board) ClearAll() {
	b.mu.Lock()
	b.primary, b.secondary, b.errText = "", "", ""
	b.mu.Unlock()
}

func (b *Board) SetImage(slot Slot, src string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch slot {
	case SlotPrimary:
		b.primary = src
	case SlotSecondary:
		b.secondary = src
	}
}

func (b *Board) SetError(msg string) {
	b.mu.Lock()
	b.errText = msg
	b.mu.Unlock()
}

func (b *Board) Snapshot() BoardSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return BoardSnapshot{Primary: b.primary, Secondary: b.secondary, Error: b.errText}
}
