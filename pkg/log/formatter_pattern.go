package log

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var patternTokenRegexp = regexp.MustCompile(`\{(\w+)\}`)

var patternTokens = map[string]struct{}{
	"timestamp": {},
	"level":     {},
	"channel":   {},
	"message":   {},
	"fields":    {},
	"error":     {},
}

// newFormatterPattern builds a formatter from a template string, e.g.
// "{level} {timestamp} {message}". Unknown tokens are rejected at build time.
func newFormatterPattern(name string, settings *FormatterSettings) (Formatter, error) {
	if settings.Format == "" {
		return nil, fmt.Errorf("formatter %q of type pattern needs a format", name)
	}

	for _, match := range patternTokenRegexp.FindAllStringSubmatch(settings.Format, -1) {
		if _, ok := patternTokens[match[1]]; !ok {
			return nil, fmt.Errorf("formatter %q uses unknown token {%s}", name, match[1])
		}
	}

	format := settings.Format
	timestampFormat := settings.TimestampFormat

	return func(timestamp time.Time, level int, loggerName string, msg string, err error, fields Fields) ([]byte, error) {
		errStr := ""
		if err != nil {
			errStr = err.Error()
		}

		line := strings.NewReplacer(
			"{timestamp}", timestamp.Format(timestampFormat),
			"{level}", LevelName(level),
			"{channel}", loggerName,
			"{message}", msg,
			"{fields}", getFieldsAsString(fields),
			"{error}", errStr,
		).Replace(format)

		return append([]byte(line), '\n'), nil
	}, nil
}

func getFieldsAsString(fields Fields) string {
	fieldParts := make([]string, 0, len(fields))

	for k, v := range fields {
		fieldParts = append(fieldParts, fmt.Sprintf("%v: %v", k, v))
	}

	return strings.Join(fieldParts, ", ")
}
