package astiavlogger

import (
	"github.com/asticode/go-astiav"
	logger "github.com/facebookincubator/go-belt/tool/logger/types"
)

var levelPairs = []struct {
	Belt   logger.Level
	Astiav astiav.LogLevel
}{
	{logger.LevelUndefined, astiav.LogLevelQuiet},
	{logger.LevelPanic, astiav.LogLevelPanic},
	{logger.LevelFatal, astiav.LogLevelFatal},
	{logger.LevelError, astiav.LogLevelError},
	{logger.LevelWarning, astiav.LogLevelWarning},
	{logger.LevelInfo, astiav.LogLevelInfo},
	{logger.LevelDebug, astiav.LogLevelVerbose},
	{logger.LevelTrace, astiav.LogLevelDebug},
}

// LevelToAstiav maps a logging level to the closest libav log level.
func LevelToAstiav(level logger.Level) astiav.LogLevel {
	for _, pair := range levelPairs {
		if pair.Belt == level {
			return pair.Astiav
		}
	}
	return astiav.LogLevelWarning
}

func LevelFromAstiav(level astiav.LogLevel) logger.Level {
	for _, pair := range levelPairs {
		if pair.Astiav == level {
			return pair.Belt
		}
	}
	return logger.LevelWarning
}
