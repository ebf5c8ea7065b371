package sidon

// Sizing constants for the subset-sum hash set.
const (
	minBuckets     = 1024
	initialBuckets = 4096
	poolPrealloc   = 1024
)

// sumNode is a chain node. Detached nodes are kept on the free list so the
// push/pop churn of the search does not hit the allocator in steady state.
type sumNode struct {
	val  uint64
	next *sumNode
}

// SumSet is an open-chained hash set of 64-bit values specialised for
// subset-sum storage. The bucket count is always a power of two so the hash
// reduces with a mask, and grows when the load factor exceeds 0.75.
type SumSet struct {
	buckets []*sumNode
	mask    uint64
	size    int
	free    *sumNode
}

// NewSumSet creates an empty set with the node pool pre-warmed.
func NewSumSet() *SumSet {
	s := &SumSet{
		buckets: make([]*sumNode, initialBuckets),
		mask:    initialBuckets - 1,
	}
	for i := 0; i < poolPrealloc; i++ {
		s.free = &sumNode{next: s.free}
	}
	return s
}

// mix64 is the Murmur3 64-bit finalizer. Subset sums are dense in the low
// bits, so the avalanche step matters before the mask reduction.
func mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// Len returns the number of stored values.
func (s *SumSet) Len() int {
	return s.size
}

// Contains reports exact membership of v.
func (s *SumSet) Contains(v uint64) bool {
	for n := s.buckets[mix64(v)&s.mask]; n != nil; n = n.next {
		if n.val == v {
			return true
		}
	}
	return false
}

// Add inserts v. It returns false without mutating the set if v is already
// present.
func (s *SumSet) Add(v uint64) bool {
	idx := mix64(v) & s.mask
	for n := s.buckets[idx]; n != nil; n = n.next {
		if n.val == v {
			return false
		}
	}

	n := s.alloc()
	n.val = v
	n.next = s.buckets[idx]
	s.buckets[idx] = n
	s.size++

	// Grow when size/buckets > 0.75.
	if uint64(s.size)*4 > uint64(len(s.buckets))*3 {
		s.grow()
	}
	return true
}

// Remove unlinks v. It returns false if v is absent.
func (s *SumSet) Remove(v uint64) bool {
	idx := mix64(v) & s.mask
	var prev *sumNode
	for n := s.buckets[idx]; n != nil; n = n.next {
		if n.val == v {
			if prev == nil {
				s.buckets[idx] = n.next
			} else {
				prev.next = n.next
			}
			s.release(n)
			s.size--
			return true
		}
		prev = n
	}
	return false
}

// Clear empties the set, returning every node to the pool.
func (s *SumSet) Clear() {
	for i, n := range s.buckets {
		for n != nil {
			next := n.next
			s.release(n)
			n = next
		}
		s.buckets[i] = nil
	}
	s.size = 0
}

// AppendAll appends every stored value to dst and returns the extended
// slice. Iteration order is unspecified.
func (s *SumSet) AppendAll(dst []uint64) []uint64 {
	for _, n := range s.buckets {
		for ; n != nil; n = n.next {
			dst = append(dst, n.val)
		}
	}
	return dst
}

// grow doubles the bucket array and relinks the existing nodes in place; no
// nodes are allocated or freed.
func (s *SumSet) grow() {
	old := s.buckets
	s.buckets = make([]*sumNode, len(old)*2)
	s.mask = uint64(len(s.buckets)) - 1
	for _, n := range old {
		for n != nil {
			next := n.next
			idx := mix64(n.val) & s.mask
			n.next = s.buckets[idx]
			s.buckets[idx] = n
			n = next
		}
	}
}

func (s *SumSet) alloc() *sumNode {
	if n := s.free; n != nil {
		s.free = n.next
		n.next = nil
		return n
	}
	return &sumNode{}
}

func (s *SumSet) release(n *sumNode) {
	n.val = 0
	n.next = s.free
	s.free = n
}
