package log

import "math"

const (
	// LevelTrace is the lowest priority (most verbose) log level.
	LevelTrace = "trace"
	// LevelDebug indicates information useful for developers.
	LevelDebug = "debug"
	// LevelInfo is the default level for operational logs.
	LevelInfo = "info"
	// LevelWarn indicates recoverable issues.
	LevelWarn = "warn"
	// LevelError indicates failures requiring attention.
	LevelError = "error"
	// LevelNone disables logging.
	LevelNone = "none"

	PriorityTrace = 0
	PriorityDebug = 1
	PriorityInfo  = 2
	PriorityWarn  = 3
	PriorityError = 4
	// PriorityNone is set to the maximum int value to ensure that it is
	// always greater than any other priority.
	PriorityNone = math.MaxInt
)

var levelNames = map[int]string{
	PriorityTrace: LevelTrace,
	PriorityDebug: LevelDebug,
	PriorityInfo:  LevelInfo,
	PriorityWarn:  LevelWarn,
	PriorityError: LevelError,
	PriorityNone:  LevelNone,
}

var levelPriorities = map[string]int{
	LevelTrace: PriorityTrace,
	LevelDebug: PriorityDebug,
	LevelInfo:  PriorityInfo,
	LevelWarn:  PriorityWarn,
	LevelError: PriorityError,
	LevelNone:  PriorityNone,
}

// LevelName returns the string representation of a log level priority (e.g., 2 -> "info").
func LevelName(level int) string {
	return levelNames[level]
}

// LevelPriority returns the numeric priority for a given log level name (e.g., "info" -> 2).
// It returns false if the level name is unknown.
func LevelPriority(level string) (int, bool) {
	priority, ok := levelPriorities[level]

	return priority, ok
}
