package constants

// FileStatus is the canonical per-file outcome reported by the aggregator.
type FileStatus string

// Stable values (these exact strings appear in logs and batch summaries).
const (
	FileStatusCompleted FileStatus = "COMPLETED" // assembled in this run
	FileStatusSkipped   FileStatus = "SKIPPED"   // record already held document text
	FileStatusFailed    FileStatus = "FAILED"    // fatal adapter error, file not in corpus
)
