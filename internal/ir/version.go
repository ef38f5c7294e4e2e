package ir

// Version constants for history records and the tool.
const (
	// RecordVersion is the schema version of persisted runs.
	RecordVersion = "1"

	// EngineVersion is the pathfill engine version.
	EngineVersion = "0.1.0"
)
