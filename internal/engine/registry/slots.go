package registry

import "fmt"

// SlotCapacity is the fixed size of the texture slot table.
const SlotCapacity = 256

// Reserved slots assigned at init.
const (
	// SlotFontAtlas is reserved for the UI font atlas.
	SlotFontAtlas = 0
	// SlotDefaultWhite holds the 1x1 opaque-white fallback texture.
	SlotDefaultWhite = 1
)

// slotTable maps stable slot indices to GL texture names. Slots are handed
// out monotonically and never reclaimed within a session; the texture bound
// to a slot may be rewritten (texture streaming relies on this).
type slotTable struct {
	textures [SlotCapacity]uint32
	next     int
}

func newSlotTable() *slotTable {
	return &slotTable{next: SlotDefaultWhite + 1}
}

// alloc reserves the next free slot.
func (s *slotTable) alloc() (int, error) {
	if s.next >= SlotCapacity {
		return 0, fmt.Errorf("%w: texture slot table full (%d slots)", ErrResourceAllocation, SlotCapacity)
	}
	slot := s.next
	s.next++
	return slot, nil
}

// set stores the GL texture name for a slot.
func (s *slotTable) set(slot int, tex uint32) {
	if slot >= 0 && slot < SlotCapacity {
		s.textures[slot] = tex
	}
}

// get returns the GL texture name for a slot, or 0 when unassigned.
func (s *slotTable) get(slot int) uint32 {
	if slot < 0 || slot >= SlotCapacity {
		return 0
	}
	return s.textures[slot]
}
