package mediareader

import (
	"sync"

	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

var (
	defaultPathOpenerLocker sync.Mutex
	defaultPathOpener       types.PathOpener
)

// SetDefaultPathOpener sets the opener used by CreateFromPath when no
// OptionPathOpener is given. Producer packages call it from init().
func SetDefaultPathOpener(opener types.PathOpener) {
	defaultPathOpenerLocker.Lock()
	defer defaultPathOpenerLocker.Unlock()
	defaultPathOpener = opener
}

func getDefaultPathOpener() types.PathOpener {
	defaultPathOpenerLocker.Lock()
	defer defaultPathOpenerLocker.Unlock()
	return defaultPathOpener
}
