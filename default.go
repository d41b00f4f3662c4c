package kokkoprof

import "sync"

// The host runtime's callback table is a set of free functions with no
// context object, so a process-wide default Connector backs the
// package-level surface. Embedding applications that want an isolated
// instance use New directly.
var (
	defaultOnce sync.Once
	defaultConn *Connector
)

func defaultConnector() *Connector {
	defaultOnce.Do(func() {
		defaultConn = New()
	})
	return defaultConn
}

// Init initializes the default connector from the environment.
func Init(loadSeq int32, interfaceVer uint64, devInfoCount uint32, deviceInfo any) {
	defaultConnector().Init(loadSeq, interfaceVer, devInfoCount, deviceInfo)
}

// Finalize finalizes the default connector.
func Finalize() {
	defaultConnector().Finalize()
}

// BeginParallelFor routes the begin event to the default connector.
func BeginParallelFor(name string, deviceID uint32) uint64 {
	return defaultConnector().BeginParallelFor(name, deviceID)
}

// EndParallelFor routes the end event to the default connector.
func EndParallelFor(handle uint64) {
	defaultConnector().EndParallelFor(handle)
}

// BeginParallelReduce routes the begin event to the default connector.
func BeginParallelReduce(name string, deviceID uint32) uint64 {
	return defaultConnector().BeginParallelReduce(name, deviceID)
}

// EndParallelReduce routes the end event to the default connector.
func EndParallelReduce(handle uint64) {
	defaultConnector().EndParallelReduce(handle)
}

// BeginParallelScan routes the begin event to the default connector.
func BeginParallelScan(name string, deviceID uint32) uint64 {
	return defaultConnector().BeginParallelScan(name, deviceID)
}

// EndParallelScan routes the end event to the default connector.
func EndParallelScan(handle uint64) {
	defaultConnector().EndParallelScan(handle)
}

// PushRegion routes the push event to the default connector.
func PushRegion(name string) {
	defaultConnector().PushRegion(name)
}

// PopRegion routes the pop event to the default connector.
func PopRegion() {
	defaultConnector().PopRegion()
}

// CreateSection routes the create event to the default connector.
func CreateSection(name string) uint32 {
	return defaultConnector().CreateSection(name)
}

// DestroySection routes the destroy event to the default connector.
func DestroySection(id uint32) {
	defaultConnector().DestroySection(id)
}

// StartSection routes the start event to the default connector.
func StartSection(id uint32) {
	defaultConnector().StartSection(id)
}

// StopSection routes the stop event to the default connector.
func StopSection(id uint32) {
	defaultConnector().StopSection(id)
}
