// Package screencapture is a capture device grabbing a display.
package screencapture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/xaionaro-go/mediareader/pkg/clock"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/mediareader/pkg/screenshot"
)

type Config struct {
	DisplayID int
	Bounds    image.Rectangle
	FrameRate int

	// Engine defaults to the operating system screenshot implementation.
	Engine screenshot.Engine
	Clock  clock.Clock
}

const DefaultFrameRate = 10

type Session struct {
	id     string
	config Config

	locker        deadlock.Mutex
	isInitialized bool
	bounds        image.Rectangle
}

var _ types.CaptureSession = (*Session)(nil)

func New(cfg Config) *Session {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	if cfg.Engine == nil {
		cfg.Engine = screenshot.Implementation{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Get()
	}
	return &Session{
		id:     fmt.Sprintf("screen:%d:%s", cfg.DisplayID, uuid.New()),
		config: cfg,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Initialize checks the display is present and resolves the captured area.
func (s *Session) Initialize(ctx context.Context) error {
	s.locker.Lock()
	defer s.locker.Unlock()

	numDisplays := s.config.Engine.NumActiveDisplays()
	if s.config.DisplayID < 0 || uint(s.config.DisplayID) >= numDisplays {
		return fmt.Errorf("%w: display #%d is not active, there are %d displays", types.ErrDeviceNotReady, s.config.DisplayID, numDisplays)
	}

	bounds := s.config.Bounds
	if bounds.Empty() {
		bounds = s.config.Engine.DisplayBounds(s.config.DisplayID)
	}
	if bounds.Empty() {
		return fmt.Errorf("%w: display #%d has empty bounds", types.ErrDeviceNotReady, s.config.DisplayID)
	}
	logger.Debugf(ctx, "screen capture session %s: bounds %v", s.id, bounds)
	s.bounds = bounds
	s.isInitialized = true
	return nil
}

func (s *Session) IsInitialized() bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.isInitialized
}

func (s *Session) OpenProducer(ctx context.Context) (types.Producer, error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	if !s.isInitialized {
		return nil, fmt.Errorf("%w: screen capture session %s", types.ErrDeviceNotReady, s.id)
	}
	return newProducer(
		s.config,
		screenshot.Config{DisplayID: s.config.DisplayID, Bounds: s.bounds},
		time.Second/time.Duration(s.config.FrameRate),
	), nil
}
