package types

import (
	"sync"
	"sync/atomic"
)

// Handle is a reference counter of the memory behind a Sample.
//
// The release function is called exactly once, when the last reference
// is released.
type Handle struct {
	refs        atomic.Int64
	releaseOnce sync.Once
	releaseFunc func()
}

func NewHandle(releaseFunc func()) *Handle {
	h := &Handle{releaseFunc: releaseFunc}
	h.refs.Store(1)
	return h
}

func (h *Handle) Retain() {
	if h.refs.Add(1) <= 1 {
		panic("retaining an already released handle")
	}
}

func (h *Handle) Release() {
	refs := h.refs.Add(-1)
	switch {
	case refs > 0:
		return
	case refs < 0:
		panic("the handle was released more times than retained")
	}
	h.releaseOnce.Do(func() {
		if h.releaseFunc != nil {
			h.releaseFunc()
		}
	})
}

func (h *Handle) IsReleased() bool {
	return h.refs.Load() <= 0
}
