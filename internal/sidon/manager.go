// Package sidon implements the search for sets of positive integers whose
// nonempty subset sums are all distinct, minimising the largest element for
// a given set size. The two halves are designed together: an incremental
// subset-sum manager with exact rollback, and a branch-and-bound search
// that drives it.
package sidon

import "math"

// Kind selects the collision-detection strategy of a Manager.
type Kind int

const (
	// Auto picks Fast below the iterative threshold, Iterative at or above it.
	Auto Kind = iota
	// Fast keeps the full subset-sum set incrementally with exact rollback.
	// O(|S|) per push, O(2^N) peak memory.
	Fast
	// Iterative keeps no sum state and re-enumerates subsets by bitmask on
	// every push. Slow, but memory-free; the only option past the fast
	// mode's memory ceiling.
	Iterative
)

// IterativeThreshold is the N at or above which Auto resolves to Iterative.
const IterativeThreshold = 25

func (k Kind) String() string {
	switch k {
	case Fast:
		return "fast"
	case Iterative:
		return "iterative"
	default:
		return "auto"
	}
}

// resolve maps Auto to a concrete kind for the given set size.
func (k Kind) resolve(n int) Kind {
	if k != Auto {
		return k
	}
	if n >= IterativeThreshold {
		return Iterative
	}
	return Fast
}

// Manager maintains the current element sequence and answers whether a new
// element keeps every nonempty subset sum distinct.
//
// TryPush is atomic: either it succeeds and the element (and, in fast mode,
// its sums) are recorded, or it reports a collision and the state is exactly
// as before. Pop undoes the most recent successful TryPush; calling it with
// no elements is a no-op.
type Manager interface {
	TryPush(v uint64) (bool, error)
	Pop()
	Size() int
	Get(i int) uint64
	Snapshot(dst []uint64) []uint64
	Kind() Kind
}

// NewManager creates a manager of the given kind. Auto resolves as if for a
// small set, i.e. Fast; callers that know N should resolve explicitly via
// the search config.
func NewManager(k Kind) Manager {
	if k == Iterative {
		return newIterManager()
	}
	return newFastManager()
}

// fastManager is the incremental mode: the set S of all nonempty subset
// sums of the element sequence, maintained under push/pop with a rollback
// log. total is the sum of all elements, which is also max(S).
type fastManager struct {
	elems   []uint64
	sums    *SumSet
	history *History
	total   uint64
	scratch []uint64
}

func newFastManager() *fastManager {
	return &fastManager{
		sums:    NewSumSet(),
		history: NewHistory(),
	}
}

func (m *fastManager) Kind() Kind { return Fast }

// TryPush extends the sequence with v if every subset sum stays distinct.
//
// The new sums would be {v} ∪ {v+s : s ∈ S}. Those cannot clash with each
// other, so the only possible collision is against a pre-existing sum; both
// passes below check exhaustively before any mutation so that a rejected
// push leaves no trace.
func (m *fastManager) TryPush(v uint64) (bool, error) {
	// v+max(S) wrapping would miscount collisions; reject as if one.
	if v > math.MaxUint64-m.total {
		return false, nil
	}
	if m.sums.Contains(v) {
		return false, nil
	}

	m.scratch = m.sums.AppendAll(m.scratch[:0])
	for _, s := range m.scratch {
		if m.sums.Contains(v + s) {
			return false, nil
		}
	}

	m.history.PushFrame()
	m.sums.Add(v)
	m.history.Record(v)
	for _, s := range m.scratch {
		sum := v + s
		m.sums.Add(sum)
		m.history.Record(sum)
	}
	m.elems = append(m.elems, v)
	m.total += v
	return true, nil
}

// Pop removes the most recently pushed element and exactly the sums it
// introduced, restoring the state of the matching TryPush's caller.
func (m *fastManager) Pop() {
	if len(m.elems) == 0 {
		return
	}
	for _, s := range m.history.PopFrame() {
		m.sums.Remove(s)
	}
	last := m.elems[len(m.elems)-1]
	m.elems = m.elems[:len(m.elems)-1]
	m.total -= last
}

func (m *fastManager) Size() int {
	return len(m.elems)
}

func (m *fastManager) Get(i int) uint64 {
	return m.elems[i]
}

func (m *fastManager) Snapshot(dst []uint64) []uint64 {
	return append(dst, m.elems...)
}

// SumCount returns |S|. In a consistent state this is 2^Size()−1.
func (m *fastManager) SumCount() int {
	return m.sums.Len()
}

// SumSnapshot appends all current subset sums to dst. Test hook.
func (m *fastManager) SumSnapshot(dst []uint64) []uint64 {
	return m.sums.AppendAll(dst)
}
