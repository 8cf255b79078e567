// Package audiocore defines the shared value types and observer contracts of
// the loopback capture and metering pipeline.
//
// # Architecture Overview
//
//	device -> capture.Engine (goroutine) -> sample converter -> metering
//	adapter -> meters -> MeterSnapshot -> engine fan-out -> observers
//
// The package itself is dependency-free glue: concrete behavior lives in the
// subpackages (capture for the device engine, meters for the level reducers)
// and in the engine package composing them.
//
// # Concurrency and Thread Safety
//
// Raw audio observers are invoked synchronously from the capture goroutine,
// one buffer at a time, and must not block. The sample slice handed to
// OnAudioData is owned by the capture engine and is only valid for the
// duration of the call; observers that need the data later must copy it.
// Meter snapshots are plain values, safe to retain and pass between
// goroutines.
package audiocore
