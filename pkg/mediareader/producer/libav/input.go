package libav

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync/atomic"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

type CustomOption struct {
	Key   string
	Value string
}

type InputID uint64

type Input struct {
	ID      InputID
	URL     string
	IsLocal bool
	*astikit.Closer
	*astiav.FormatContext
	*astiav.Dictionary
}

var nextInputID atomic.Uint64

func isLocalPath(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return true
	}
	switch strings.ToLower(u.Scheme) {
	case "", "file":
		return true
	}
	// "C:\..." is parsed as scheme "c"
	return len(u.Scheme) == 1
}

func newInputFromPath(
	ctx context.Context,
	path string,
	customOptions []CustomOption,
) (_ *Input, _err error) {
	input := &Input{
		ID:      InputID(nextInputID.Add(1)),
		URL:     path,
		IsLocal: isLocalPath(path),
		Closer:  astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			_ = input.Closer.Close()
		}
	}()

	if input.IsLocal {
		if _, err := os.Stat(strings.TrimPrefix(path, "file://")); err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err)
		}
	}

	input.FormatContext = astiav.AllocFormatContext()
	if input.FormatContext == nil {
		return nil, fmt.Errorf("unable to allocate a format context")
	}
	input.Closer.Add(input.FormatContext.Free)

	if len(customOptions) > 0 {
		input.Dictionary = astiav.NewDictionary()
		input.Closer.Add(input.Dictionary.Free)

		for _, opt := range customOptions {
			logger.Debugf(ctx, "input.Dictionary['%s'] = '%s'", opt.Key, opt.Value)
			input.Dictionary.Set(opt.Key, opt.Value, 0)
		}
	}

	if err := input.FormatContext.OpenInput(path, nil, input.Dictionary); err != nil {
		if input.IsLocal {
			return nil, fmt.Errorf("%w: unable to open '%s': %w", types.ErrUnsupportedContainer, path, err)
		}
		return nil, fmt.Errorf("%w: unable to open '%s': %w", types.ErrSourceUnavailable, path, err)
	}
	input.Closer.Add(input.FormatContext.CloseInput)

	if err := input.FormatContext.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("%w: unable to get stream info of '%s': %w", types.ErrUnsupportedContainer, path, err)
	}
	return input, nil
}
