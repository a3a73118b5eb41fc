package logkey

// Shared keys for structured logging so the same attribute name is used
// everywhere.
const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"
)
