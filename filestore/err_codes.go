package filestore

// Failure reasons attached to storage errors under the "reason" detail.
const (
	// CodeFileNotFound is returned when a file does not exist at the specified path.
	CodeFileNotFound = "FILE_NOT_FOUND"
)
