// Package simulator provides an in-memory BioHarness for tests and examples.
//
// A Device answers GET_LOG requests from a byte slice standing in for the
// device's log storage. Faults can be injected per response to exercise
// retry and recovery paths:
//
//	dev := simulator.NewDevice("COM3", storage)
//	dev.Inject(simulator.FaultCRC, 3)   // next three responses fail their CRC
//	dev.InjectAt(4096, simulator.FaultNAK, 1)
//
//	d := downloader.New(downloader.WithOpener(simulator.Opener(dev)))
//
// Storage images are built with riff.Builder.
package simulator
