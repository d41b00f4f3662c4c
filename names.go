package kokkoprof

import "fmt"

// KernelRegionName composes the qualified region name reported for a
// parallel kernel dispatched on the given device. The format is fixed:
// downstream report consumers key on it.
func KernelRegionName(deviceID uint32, name string) string {
	return fmt.Sprintf("kokkos/dev%d/%s", deviceID, name)
}

// SectionRegionName composes the qualified region name reported for a
// user-declared profile section.
func SectionRegionName(sectionID uint32, name string) string {
	return fmt.Sprintf("kokkos/section%d/%s", sectionID, name)
}
