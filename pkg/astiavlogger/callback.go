// Package astiavlogger forwards libav log messages into a go-belt logger.
package astiavlogger

import (
	"fmt"
	"strings"

	"github.com/asticode/go-astiav"
	logger "github.com/facebookincubator/go-belt/tool/logger/types"
)

func classChain(c astiav.Classer) string {
	if c == nil {
		return ""
	}
	var chain []string
	for cl := c.Class(); cl != nil; cl = cl.Parent() {
		chain = append(chain, fmt.Sprintf("[%s]%s:%s", ClassCategoryName(cl.Category()), cl.Name(), cl.ItemName()))
	}
	return strings.Join(chain, "->")
}

// Callback returns a libav log callback writing into l.
func Callback(l logger.Logger) astiav.LogCallback {
	return func(c astiav.Classer, level astiav.LogLevel, format, msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return
		}
		entryLogger := l
		if chain := classChain(c); chain != "" {
			entryLogger = l.WithField("av_class", chain)
		}
		entryLogger.Logf(LevelFromAstiav(level), "%s", msg)
	}
}
