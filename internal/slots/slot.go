package slots

// Slot is the active position: either an existing image or the pending new one.
type Slot interface {
	isSlot()
}

// ExistingSlot points at images[Index].
type ExistingSlot struct {
	Index int
}

// NewSlot is the position after the last image, with no record behind it yet.
type NewSlot struct{}

func (ExistingSlot) isSlot() {}
func (NewSlot) isSlot()      {}
