// devicekind.go - stable device-kind enumeration tags (spec §6)

package isa

// Device-kind tags, as reported by a device's Kind() and enumerated by
// the ComputerInfo device. Values are part of the external interface and
// must not be renumbered.
const (
	DeviceNull              Word = 0
	DeviceComputerInfo      Word = 1
	DeviceROM               Word = 2
	DeviceRAM               Word = 3
	DeviceCharDisplay       Word = 4
	DeviceColourCharDisplay Word = 5
	DeviceKeyboard          Word = 6
)
