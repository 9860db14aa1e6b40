package libav

import (
	"runtime"
	"sync"

	"github.com/asticode/go-astiav"
)

type pool[T any] struct {
	sync.Pool
	ResetFunc func(*T)
}

func newPool[T any](
	allocFunc func() *T,
	resetFunc func(*T),
	freeFunc func(*T),
) *pool[T] {
	return &pool[T]{
		Pool: sync.Pool{
			New: func() any {
				v := allocFunc()
				runtime.SetFinalizer(v, freeFunc)
				return v
			},
		},
		ResetFunc: resetFunc,
	}
}

func (p *pool[T]) Get() *T {
	return p.Pool.Get().(*T)
}

func (p *pool[T]) Put(item *T) {
	p.ResetFunc(item)
	p.Pool.Put(item)
}

var packetPool = newPool(
	astiav.AllocPacket,
	func(p *astiav.Packet) { p.Unref() },
	func(p *astiav.Packet) { p.Free() },
)

// clonePacket returns a pooled packet referencing the same data as src.
func clonePacket(src *astiav.Packet) (*astiav.Packet, error) {
	dst := packetPool.Get()
	if err := dst.Ref(src); err != nil {
		packetPool.Put(dst)
		return nil, err
	}
	return dst, nil
}

// packetQueue buffers demuxed packets of a track that is not being read
// right now.
type packetQueue struct {
	packets []*astiav.Packet
	limit   int
	dropped uint64
}

func (q *packetQueue) push(p *astiav.Packet) {
	if q.limit > 0 && len(q.packets) >= q.limit {
		packetPool.Put(q.packets[0])
		q.packets = q.packets[1:]
		q.dropped++
	}
	q.packets = append(q.packets, p)
}

func (q *packetQueue) pushFront(p *astiav.Packet) {
	q.packets = append([]*astiav.Packet{p}, q.packets...)
}

func (q *packetQueue) pop() *astiav.Packet {
	if len(q.packets) == 0 {
		return nil
	}
	p := q.packets[0]
	q.packets[0] = nil
	q.packets = q.packets[1:]
	return p
}

func (q *packetQueue) reset() {
	for _, p := range q.packets {
		packetPool.Put(p)
	}
	q.packets = nil
}
