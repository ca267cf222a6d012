// Package tfbuffer keeps a bounded history of stamped rigid transforms per
// frame-tree edge and answers interpolated lookups between any two frames of
// the tree. It is safe for concurrent inserts from message callbacks and
// concurrent lookups from the synchronization loop.
package tfbuffer

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/num/quat"

	"github.com/c360/vizbridge/errors"
	"github.com/c360/vizbridge/frames"
	"github.com/c360/vizbridge/message"
)

// DefaultCapacity is the number of samples retained per edge.
const DefaultCapacity = 200

type sample struct {
	stamp time.Time
	tf    message.Transform
}

// edge is the history of one child frame, tagged with the parent frame the
// source declared for it.
type edge struct {
	parent  string
	samples []sample // sorted by stamp
}

// Buffer is the transform history store.
type Buffer struct {
	graph    *frames.Graph
	capacity int

	mu    sync.RWMutex
	edges map[string]*edge // keyed by child frame
}

// New creates a buffer over the given frame graph.
func New(graph *frames.Graph) *Buffer {
	return &Buffer{
		graph:    graph,
		capacity: DefaultCapacity,
		edges:    make(map[string]*edge),
	}
}

// Insert records the transform from the declared parent to child at the given
// stamp. A change of declared parent reparents the edge and resets its
// history. Out-of-order stamps are tolerated; samples stay sorted. The oldest
// sample is evicted once the per-edge capacity is reached.
func (b *Buffer) Insert(parent, child string, stamp time.Time, tf message.Transform) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.edges[child]
	if e == nil || e.parent != parent {
		e = &edge{parent: parent}
		b.edges[child] = e
	}

	samples := e.samples
	s := sample{stamp: stamp, tf: tf}

	// Common case: newest sample appends at the end.
	idx := len(samples)
	for idx > 0 && samples[idx-1].stamp.After(stamp) {
		idx--
	}
	samples = append(samples, sample{})
	copy(samples[idx+1:], samples[idx:])
	samples[idx] = s

	if len(samples) > b.capacity {
		samples = samples[len(samples)-b.capacity:]
	}
	e.samples = samples
}

// Lookup returns the rigid transform mapping coordinates in the source frame
// to the target frame, interpolated at the requested instant. A sample within
// tolerance of the instant substitutes when no bracketing pair exists.
func (b *Buffer) Lookup(target, source string, at time.Time, tolerance time.Duration) (message.Transform, error) {
	toTarget, err := b.graph.PathToRoot(target)
	if err != nil {
		return message.Transform{}, err
	}
	toSource, err := b.graph.PathToRoot(source)
	if err != nil {
		return message.Transform{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	rootFromSource, err := b.chainAt(toSource, at, tolerance)
	if err != nil {
		return message.Transform{}, err
	}
	rootFromTarget, err := b.chainAt(toTarget, at, tolerance)
	if err != nil {
		return message.Transform{}, err
	}

	return compose(invert(rootFromTarget), rootFromSource), nil
}

// chainAt composes the edge transforms along a frame→root chain, yielding the
// transform from the chain's leaf into the root frame. Caller holds the lock.
func (b *Buffer) chainAt(chain []string, at time.Time, tolerance time.Duration) (message.Transform, error) {
	result := identityTransform()
	// chain is leaf-first; every element except the last (the root) has an edge.
	for i := len(chain) - 2; i >= 0; i-- {
		child := chain[i]
		edge, err := b.edgeAt(child, at, tolerance)
		if err != nil {
			return message.Transform{}, err
		}
		result = compose(result, edge)
	}
	return result, nil
}

// edgeAt interpolates the parent←child transform at the requested instant.
// The declared parent must agree with the frame tree; history recorded under
// a different parent cannot be composed along the tree's chains.
func (b *Buffer) edgeAt(child string, at time.Time, tolerance time.Duration) (message.Transform, error) {
	e := b.edges[child]
	if e == nil || len(e.samples) == 0 {
		return message.Transform{}, errors.WrapTransient(
			fmt.Errorf("no history for frame %q: %w", child, errors.ErrTransformUnavailable),
			"tfbuffer", "Lookup", "edge history lookup")
	}
	if expected := b.graph.Parent(child); e.parent != expected {
		return message.Transform{}, errors.WrapTransient(
			fmt.Errorf("frame %q declares parent %q but the tree expects %q: %w",
				child, e.parent, expected, errors.ErrFramesDisconnected),
			"tfbuffer", "Lookup", "edge parent check")
	}
	samples := e.samples

	// Binary search for the first sample at or after the instant.
	lo, hi := 0, len(samples)
	for lo < hi {
		mid := (lo + hi) / 2
		if samples[mid].stamp.Before(at) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	switch {
	case lo == 0:
		// Requested instant precedes history; accept the oldest sample if close.
		if d := samples[0].stamp.Sub(at); d <= tolerance {
			return samples[0].tf, nil
		}
		return message.Transform{}, errors.WrapTransient(
			fmt.Errorf("frame %q history starts %v after requested time: %w",
				child, samples[0].stamp.Sub(at), errors.ErrExtrapolationRequired),
			"tfbuffer", "Lookup", "interpolation")
	case lo == len(samples):
		// Requested instant is newer than everything buffered.
		if d := at.Sub(samples[lo-1].stamp); d <= tolerance {
			return samples[lo-1].tf, nil
		}
		return message.Transform{}, errors.WrapTransient(
			fmt.Errorf("frame %q newest sample is %v before requested time: %w",
				child, at.Sub(samples[lo-1].stamp), errors.ErrExtrapolationRequired),
			"tfbuffer", "Lookup", "interpolation")
	default:
		before, after := samples[lo-1], samples[lo]
		span := after.stamp.Sub(before.stamp)
		if span <= 0 {
			return after.tf, nil
		}
		alpha := float64(at.Sub(before.stamp)) / float64(span)
		return interpolate(before.tf, after.tf, alpha), nil
	}
}

func identityTransform() message.Transform {
	return message.Transform{Rotation: message.Identity()}
}

func toQuat(q message.Quaternion) quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromQuat(q quat.Number) message.Quaternion {
	return message.Quaternion{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// rotate applies the rotation q to v (q v q*).
func rotate(q message.Quaternion, v message.Vec3) message.Vec3 {
	r := toQuat(q)
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	out := quat.Mul(quat.Mul(r, p), quat.Conj(r))
	return message.Vec3{X: out.Imag, Y: out.Jmag, Z: out.Kmag}
}

// compose returns a∘b: apply b first, then a.
func compose(a, b message.Transform) message.Transform {
	rotated := rotate(a.Rotation, b.Translation)
	return message.Transform{
		Translation: message.Vec3{
			X: a.Translation.X + rotated.X,
			Y: a.Translation.Y + rotated.Y,
			Z: a.Translation.Z + rotated.Z,
		},
		Rotation: normalize(fromQuat(quat.Mul(toQuat(a.Rotation), toQuat(b.Rotation)))),
	}
}

// invert returns the inverse rigid transform.
func invert(t message.Transform) message.Transform {
	inv := fromQuat(quat.Conj(toQuat(t.Rotation)))
	moved := rotate(inv, t.Translation)
	return message.Transform{
		Translation: message.Vec3{X: -moved.X, Y: -moved.Y, Z: -moved.Z},
		Rotation:    inv,
	}
}

// interpolate blends two transforms: linear translation, spherical rotation.
func interpolate(a, b message.Transform, alpha float64) message.Transform {
	return message.Transform{
		Translation: message.Vec3{
			X: a.Translation.X + alpha*(b.Translation.X-a.Translation.X),
			Y: a.Translation.Y + alpha*(b.Translation.Y-a.Translation.Y),
			Z: a.Translation.Z + alpha*(b.Translation.Z-a.Translation.Z),
		},
		Rotation: slerp(a.Rotation, b.Rotation, alpha),
	}
}

// slerp interpolates along the shortest arc between two unit quaternions.
func slerp(a, b message.Quaternion, alpha float64) message.Quaternion {
	qa, qb := toQuat(a), toQuat(b)

	// Flip to the same hemisphere for the shortest path.
	dot := qa.Real*qb.Real + qa.Imag*qb.Imag + qa.Jmag*qb.Jmag + qa.Kmag*qb.Kmag
	if dot < 0 {
		qb = quat.Scale(-1, qb)
	}

	delta := quat.Mul(quat.Inv(qa), qb)
	out := quat.Mul(qa, quat.PowReal(delta, alpha))
	return normalize(fromQuat(out))
}

func normalize(q message.Quaternion) message.Quaternion {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return message.Identity()
	}
	return message.Quaternion{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}
