package driven

// DocumentValidator checks an upload before extraction.
type DocumentValidator interface {
	// Validate rejects empty, oversized or corrupt buffers and returns the
	// page count recorded in the file structure.
	Validate(data []byte, maxBytes int64) (pageCount int, err error)
}
