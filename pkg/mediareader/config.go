package mediareader

import (
	"github.com/xaionaro-go/mediareader/pkg/clock"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

type Config struct {
	// MaxConsecutiveErrors promotes the N-th consecutive recoverable read
	// error of a stream to a fatal one; 0 disables the promotion.
	MaxConsecutiveErrors uint

	// PathOpener overrides the registered default path opener.
	PathOpener types.PathOpener

	// Clock is used for creation timestamps; nil means the global clock.
	Clock clock.Clock
}

func (cfg Config) Options() Options {
	return Options{
		OptionMaxConsecutiveErrors(cfg.MaxConsecutiveErrors),
		OptionPathOpener(cfg.PathOpener),
		OptionClock{Clock: cfg.Clock},
	}
}

func (cfg Config) clock() clock.Clock {
	if cfg.Clock != nil {
		return cfg.Clock
	}
	return clock.Get()
}

type Option interface {
	Apply(cfg *Config)
}

type Options []Option

func (s Options) Config() Config {
	cfg := DefaultConfig()
	s.apply(&cfg)
	return cfg
}

func (s Options) apply(cfg *Config) {
	for _, opt := range s {
		opt.Apply(cfg)
	}
}

var DefaultConfig = func() Config {
	return Config{}
}

type OptionMaxConsecutiveErrors uint

func (opt OptionMaxConsecutiveErrors) Apply(cfg *Config) {
	cfg.MaxConsecutiveErrors = uint(opt)
}

type OptionPathOpener types.PathOpener

func (opt OptionPathOpener) Apply(cfg *Config) {
	cfg.PathOpener = types.PathOpener(opt)
}

type OptionClock struct {
	Clock clock.Clock
}

func (opt OptionClock) Apply(cfg *Config) {
	cfg.Clock = opt.Clock
}
