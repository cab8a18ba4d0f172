package log

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

func FormatterConsole(timestamp time.Time, level int, name string, msg string, err error, fields Fields) ([]byte, error) {
	fieldString := getFieldsAsString(fields)

	errStr := ""
	if err != nil {
		errStr = fmt.Sprintf("ERR: %s", err.Error())
	}

	now := fmt.Sprintf("%-15v", timestamp.Format("15:04:05.000000"))
	levelStr := fmt.Sprintf("%-7v", LevelName(level))
	nameStr := fmt.Sprintf("%-7s", name)

	output := fmt.Sprintf("%s %s %s %-50s %s %s",
		color.YellowString(now),
		color.GreenString(nameStr),
		color.GreenString(levelStr),
		msg,
		color.BlueString(fieldString),
		color.RedString(errStr),
	)
	serialized := []byte(output)

	return append(serialized, '\n'), nil
}
