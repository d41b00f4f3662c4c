package kokkoprof

import (
	"github.com/hpctools/kokkoprof/internal/registry"
)

// router translates lifecycle events into session registry operations.
// The implementation is chosen once at init: when the configured metric
// set is empty, every event resolves to nopRouter with no registry
// traffic at all.
type router interface {
	beginKernel(name string, deviceID uint32) uint64
	endKernel(handle uint64)
	pushRegion(name string)
	popRegion()
	createSection(name string) uint32
	destroySection(id uint32)
	startSection(id uint32)
	stopSection(id uint32)
	sweep() int
}

type activeRouter struct {
	reg *registry.Registry
}

func (r *activeRouter) beginKernel(name string, deviceID uint32) uint64 {
	ts := r.reg.Current()
	handle := ts.NextHandle()
	b := ts.CreateKernel(KernelRegionName(deviceID, name), handle)
	b.Start()
	return handle
}

func (r *activeRouter) endKernel(handle uint64) {
	ts := r.reg.Current()
	ts.StopKernel(handle)
	ts.DestroyKernel(handle)
}

func (r *activeRouter) pushRegion(name string) {
	r.reg.Current().Push(name)
}

func (r *activeRouter) popRegion() {
	r.reg.Current().Pop()
}

func (r *activeRouter) createSection(name string) uint32 {
	ts := r.reg.Current()
	id := uint32(ts.NextHandle())
	ts.CreateSection(SectionRegionName(id, name), id)
	return id
}

func (r *activeRouter) destroySection(id uint32) {
	r.reg.Current().DestroySection(id)
}

func (r *activeRouter) startSection(id uint32) {
	r.reg.Current().StartSection(id)
}

func (r *activeRouter) stopSection(id uint32) {
	r.reg.Current().StopSection(id)
}

func (r *activeRouter) sweep() int {
	return r.reg.Sweep()
}

// nopRouter is selected when no metrics are configured. Begin operations
// still hand back a handle value so the runtime's out-parameter contract
// holds, but nothing is allocated or registered.
type nopRouter struct{}

func (nopRouter) beginKernel(string, uint32) uint64 { return 0 }
func (nopRouter) endKernel(uint64)                  {}
func (nopRouter) pushRegion(string)                 {}
func (nopRouter) popRegion()                        {}
func (nopRouter) createSection(string) uint32       { return 0 }
func (nopRouter) destroySection(uint32)             {}
func (nopRouter) startSection(uint32)               {}
func (nopRouter) stopSection(uint32)                {}
func (nopRouter) sweep() int                        { return 0 }
