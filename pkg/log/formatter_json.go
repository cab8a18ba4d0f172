package log

import (
	"encoding/json"
	"fmt"
	"time"
)

func FormatterJson(timestamp time.Time, level int, name string, msg string, err error, fields Fields) ([]byte, error) {
	jsn := make(map[string]any, 7)

	if err != nil {
		jsn["err"] = err.Error()
	}

	jsn["logger"] = name
	jsn["level"] = level
	jsn["level_name"] = LevelName(level)
	jsn["timestamp"] = timestamp.Format(time.RFC3339)
	jsn["message"] = msg
	jsn["fields"] = fields

	serialized, err := json.Marshal(jsn)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log record to JSON: %w", err)
	}

	return append(serialized, '\n'), nil
}
