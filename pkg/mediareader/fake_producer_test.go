package mediareader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

type fakeStep struct {
	unit *types.Unit
	err  error
}

type fakeTrack struct {
	Info   types.TrackInfo
	Script []fakeStep

	// Gate, if set, is waited on by every ReadNext call.
	Gate chan struct{}
	// HonorContext makes a gated ReadNext return on context cancellation.
	HonorContext bool

	position       int
	selectedFormat types.Format
	readCalls      atomic.Int64
	released       atomic.Int64
}

type fakeProducer struct {
	Info      types.SourceInfo
	Tracks    map[int]*fakeTrack
	ProbeErr  error
	SelectErr error

	// SeekStarted, if set, receives a value when Seek is entered.
	SeekStarted chan struct{}
	// SeekGate, if set, is waited on by Seek.
	SeekGate chan struct{}

	locker     sync.Mutex
	closeCalls atomic.Int64
	seeks      []time.Duration
}

var _ types.Producer = (*fakeProducer)(nil)
var _ types.Seeker = (*fakeProducer)(nil)

func newFakeProducer(canSeek bool, tracks ...*fakeTrack) *fakeProducer {
	p := &fakeProducer{
		Tracks: map[int]*fakeTrack{},
	}
	p.Info.CanSeek = canSeek
	if canSeek {
		d := 3 * time.Second
		p.Info.Duration = &d
	}
	for _, track := range tracks {
		p.Info.Tracks = append(p.Info.Tracks, track.Info)
		p.Tracks[track.Info.ID] = track
	}
	return p
}

func (p *fakeProducer) opener() types.PathOpener {
	return func(ctx context.Context, path string) (types.Producer, error) {
		return p, nil
	}
}

func (p *fakeProducer) Probe(ctx context.Context) (*types.SourceInfo, error) {
	if p.ProbeErr != nil {
		return nil, p.ProbeErr
	}
	info := p.Info
	return &info, nil
}

func (p *fakeProducer) SelectTrack(ctx context.Context, trackID int, output types.Format) error {
	if p.SelectErr != nil {
		return p.SelectErr
	}
	p.locker.Lock()
	defer p.locker.Unlock()
	track, ok := p.Tracks[trackID]
	if !ok {
		return fmt.Errorf("no track %d", trackID)
	}
	track.selectedFormat = output
	return nil
}

func (p *fakeProducer) ReadNext(ctx context.Context, trackID int) (*types.Unit, error) {
	p.locker.Lock()
	track := p.Tracks[trackID]
	p.locker.Unlock()

	track.readCalls.Add(1)
	if track.Gate != nil {
		if track.HonorContext {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-track.Gate:
			}
		} else {
			<-track.Gate
		}
	}

	p.locker.Lock()
	defer p.locker.Unlock()
	if track.position >= len(track.Script) {
		return nil, io.EOF
	}
	step := track.Script[track.position]
	track.position++
	if step.unit == nil {
		return nil, step.err
	}
	unit := *step.unit
	unit.Release = func() { track.released.Add(1) }
	return &unit, nil
}

func (p *fakeProducer) Seek(ctx context.Context, position time.Duration) error {
	if p.SeekStarted != nil {
		p.SeekStarted <- struct{}{}
	}
	if p.SeekGate != nil {
		<-p.SeekGate
	}
	p.locker.Lock()
	defer p.locker.Unlock()
	p.seeks = append(p.seeks, position)
	for _, track := range p.Tracks {
		track.position = 0
	}
	return nil
}

func (p *fakeProducer) Close() error {
	p.closeCalls.Add(1)
	return nil
}

func videoTrackInfo(id int) types.TrackInfo {
	return types.TrackInfo{
		ID:               id,
		Kind:             types.EssenceKindVideo,
		NativeFormat:     types.FormatBGRA8,
		SupportedFormats: types.Formats{types.FormatNV12},
	}
}

func audioTrackInfo(id int) types.TrackInfo {
	return types.TrackInfo{
		ID:               id,
		Kind:             types.EssenceKindAudio,
		NativeFormat:     types.FormatPCMFloat32LE,
		SupportedFormats: types.Formats{types.FormatPCMS16LE},
	}
}

func bgraUnit(ts time.Duration) fakeStep {
	return fakeStep{unit: &types.Unit{
		Format:    types.FormatBGRA8,
		Timestamp: ts,
		Duration:  40 * time.Millisecond,
		Width:     2,
		Height:    2,
		Planes:    []types.Plane{{Data: make([]byte, 16), Stride: 8}},
	}}
}

func pcmUnit(ts time.Duration) fakeStep {
	return fakeStep{unit: &types.Unit{
		Format:     types.FormatPCMFloat32LE,
		Timestamp:  ts,
		Channels:   2,
		SampleRate: 48000,
		FrameCount: 4,
		Data:       make([]byte, 32),
	}}
}

func failStep(err error) fakeStep {
	return fakeStep{err: err}
}

func errStep(code int, fatal bool) fakeStep {
	return fakeStep{err: &types.ProducerError{Code: code, Message: fmt.Sprintf("failure %d", code), Fatal: fatal}}
}
