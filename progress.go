package dpack

// ProgressEvent is a progress update during Pack or Unpack.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry just processed, relative to the root, if applicable.
	Path string

	// BytesDone is the content processed so far.
	BytesDone uint64

	// FilesDone is the number of entries processed so far.
	FilesDone int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages.
const (
	// StageWalking indicates the source tree walk has started.
	StageWalking ProgressStage = iota

	// StagePacking indicates an entry was written to the archive.
	StagePacking

	// StageUnpacking indicates an entry was restored from the archive.
	StageUnpacking

	// StageVerifying indicates the finished archive is being digested.
	StageVerifying
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageWalking:
		return "walking"
	case StagePacking:
		return "packing"
	case StageUnpacking:
		return "unpacking"
	case StageVerifying:
		return "verifying"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates. It is called synchronously from the
// goroutine running the operation.
type ProgressFunc func(ProgressEvent)

func report(fn ProgressFunc, stage ProgressStage, path string, stats *Stats) {
	if fn == nil {
		return
	}
	fn(ProgressEvent{Stage: stage, Path: path, BytesDone: stats.Bytes, FilesDone: stats.Entries})
}
