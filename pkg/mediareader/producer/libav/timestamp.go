package libav

import (
	"math"
	"time"

	"github.com/asticode/go-astiav"
)

// noPTS is AV_NOPTS_VALUE.
const noPTS = math.MinInt64

func toDuration(ts int64, timeBase float64) time.Duration {
	seconds := float64(ts) * timeBase
	return time.Duration(math.Round(float64(time.Second) * seconds))
}

func fromDuration(d time.Duration, timeBase float64) int64 {
	return int64(math.Round(d.Seconds() / timeBase))
}

func containerDuration(fc *astiav.FormatContext) (time.Duration, bool) {
	duration := fc.Duration()
	if duration == noPTS || duration <= 0 {
		return 0, false
	}
	return toDuration(duration, 1/float64(astiav.TimeBase)), true
}

func audioDuration(frameCount, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frameCount) * time.Second / time.Duration(sampleRate)
}
