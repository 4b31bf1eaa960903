package logkey

// Keys used for structured logging across the service.
const (
	TraceID = "trace_id"
	ERROR   = "error"
)
