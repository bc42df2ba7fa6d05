package requestlog

// Logger is the minimal interface for recording entries.
type Logger interface {
	Log(entry *Entry)
}

// Store keeps entries for inspection via the admin API.
type Store interface {
	Logger

	// Get retrieves a log entry by ID, or nil.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all log entries.
	Clear()

	// Count returns the number of log entries.
	Count() int
}

// Filter defines criteria for filtering request logs.
type Filter struct {
	// Trigger filters by trigger kind (http, kafka).
	Trigger string

	// Group filters by group name.
	Group string

	// Method filters by HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// Topic filters by Kafka topic.
	Topic string

	// MatchedID filters by matched flow ID.
	MatchedID string

	// StatusCode filters by response status code.
	StatusCode int

	// HasError filters by error presence.
	HasError *bool

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}
