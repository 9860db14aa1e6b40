// Package nullcapture is a synthetic capture device: a moving test
// pattern and silence, paced in real (or mock) time.
package nullcapture

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

type Session struct {
	id     string
	config Config

	locker        deadlock.Mutex
	isInitialized bool
}

var _ types.CaptureSession = (*Session)(nil)

func New(cfg Config) *Session {
	return &Session{
		id:     "null:" + uuid.New().String(),
		config: cfg.withDefaults(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Config() Config {
	return s.config
}

// Initialize brings the device up; creating a reader from a session that
// was not initialized fails with types.ErrDeviceNotReady.
func (s *Session) Initialize(ctx context.Context) error {
	if !s.config.VideoFormat.IsKnown() || s.config.VideoFormat.Kind() != types.EssenceKindVideo {
		return fmt.Errorf("%s is not a video format the null device can render", s.config.VideoFormat)
	}
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.isInitialized {
		return nil
	}
	logger.Debugf(ctx, "initializing null capture session %s: %dx%d@%d %s", s.id, s.config.Width, s.config.Height, s.config.FrameRate, s.config.VideoFormat)
	s.isInitialized = true
	return nil
}

// Deinitialize brings the device down; producers opened before keep working.
func (s *Session) Deinitialize(ctx context.Context) {
	s.locker.Lock()
	defer s.locker.Unlock()
	logger.Debugf(ctx, "deinitializing null capture session %s", s.id)
	s.isInitialized = false
}

func (s *Session) IsInitialized() bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.isInitialized
}

func (s *Session) OpenProducer(ctx context.Context) (types.Producer, error) {
	if !s.IsInitialized() {
		return nil, fmt.Errorf("%w: null capture session %s", types.ErrDeviceNotReady, s.id)
	}
	return newProducer(s.config), nil
}
