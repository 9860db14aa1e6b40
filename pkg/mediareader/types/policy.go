package types

import (
	"fmt"
	"strings"
)

type PolicyMode uint

const (
	// PolicyModeNativeOrDefault accepts whatever decoded form the producer yields.
	PolicyModeNativeOrDefault = PolicyMode(iota)
	// PolicyModeDeselected does not activate the track.
	PolicyModeDeselected
	// PolicyModeExplicit requests a specific decode output format.
	PolicyModeExplicit
)

func (m PolicyMode) String() string {
	switch m {
	case PolicyModeNativeOrDefault:
		return "native"
	case PolicyModeDeselected:
		return "deselected"
	case PolicyModeExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("<unexpected_mode_%d>", uint(m))
	}
}

// Policy is the initialization policy of the primary track of one essence kind.
//
// The zero value is NativeOrDefault.
type Policy struct {
	Mode   PolicyMode
	Format Format

	// IsOptional makes a track with an unsupported explicit format become
	// deselected instead of failing the Reader creation.
	IsOptional bool
}

func NativeOrDefault() Policy {
	return Policy{Mode: PolicyModeNativeOrDefault}
}

func Deselected() Policy {
	return Policy{Mode: PolicyModeDeselected}
}

func Explicit(format Format) Policy {
	return Policy{Mode: PolicyModeExplicit, Format: format}
}

// Optional returns a copy of the policy that does not fail the Reader if
// the requested format cannot be negotiated.
func (p Policy) Optional() Policy {
	p.IsOptional = true
	return p
}

var (
	AudioDeselected = Deselected()
	AudioPcm        = Explicit(FormatPCMS16LE)

	VideoDeselected = Deselected()
	VideoNv12       = Explicit(FormatNV12)
	VideoBgra8      = Explicit(FormatBGRA8)
)

func (p Policy) String() string {
	var s string
	switch p.Mode {
	case PolicyModeExplicit:
		s = string(p.Format)
	default:
		s = p.Mode.String()
	}
	if p.IsOptional {
		s += ",optional"
	}
	return s
}

// ParsePolicy parses the textual form produced by Policy.String, for
// example "deselected", "native", "nv12" or "bgra8,optional".
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var optional bool
	if base, ok := strings.CutSuffix(s, ",optional"); ok {
		s, optional = base, true
	}

	var p Policy
	switch s {
	case "", "native", "default", "nativeordefault":
		p = NativeOrDefault()
	case "deselected", "none", "off":
		p = Deselected()
	case "pcm":
		p = AudioPcm
	default:
		f := Format(s)
		if !f.IsKnown() {
			return Policy{}, fmt.Errorf("unknown format '%s'", s)
		}
		p = Explicit(f)
	}
	if optional {
		p = p.Optional()
	}
	return p, nil
}

func (p Policy) MarshalYAML() (any, error) {
	return p.String(), nil
}

func (p *Policy) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("a policy is expected to be a string: %w", err)
	}
	parsed, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
