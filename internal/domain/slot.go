package domain

// Slot names a fixed-purpose snapshot kept in the history directory.
type Slot string

const (
	// SlotBoot holds the content of the file the current boot started from.
	SlotBoot Slot = "boot"
	// SlotLast holds the most recently persisted content.
	SlotLast Slot = "last"
	// SlotInitial holds the content of the first successful boot.
	SlotInitial Slot = "initial"
)

// Slots lists every slot in a stable order.
var Slots = []Slot{SlotBoot, SlotLast, SlotInitial}

// ParseSlot returns the slot for a reserved name.
func ParseSlot(name string) (Slot, bool) {
	for _, s := range Slots {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

func (s Slot) String() string { return string(s) }
