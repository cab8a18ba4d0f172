package log_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tcpkit/tcpkit/pkg/log"
)

func TestLevelPriority(t *testing.T) {
	for name, expected := range map[string]int{
		log.LevelTrace: log.PriorityTrace,
		log.LevelDebug: log.PriorityDebug,
		log.LevelInfo:  log.PriorityInfo,
		log.LevelWarn:  log.PriorityWarn,
		log.LevelError: log.PriorityError,
		log.LevelNone:  log.PriorityNone,
	} {
		priority, ok := log.LevelPriority(name)
		assert.True(t, ok, "level %s should be known", name)
		assert.Equal(t, expected, priority)
		assert.Equal(t, name, log.LevelName(priority))
	}
}

func TestLevelPriorityUnknown(t *testing.T) {
	_, ok := log.LevelPriority("verbose")
	assert.False(t, ok)
}
