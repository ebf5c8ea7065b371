package sidon

import (
	"math"
	"sync/atomic"
	"time"
)

// Progress gating: check the clock only on node counts matching these masks.
const (
	progressMaskEarly = 1024 - 1
	progressMaskLate  = 65536 - 1
	progressLateAfter = 100000
)

// Status classifies a finished search.
type Status int

const (
	StatusNoSolution Status = iota
	StatusOptimal
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInterrupted:
		return "INTERRUPTED"
	default:
		return "NO_SOLUTION"
	}
}

// Mode selects which completions a search records.
type Mode int

const (
	// FirstImprovement keeps only strictly improving completions.
	FirstImprovement Mode = iota
	// EnumerateAll additionally collects every completion tying the best
	// maximum.
	EnumerateAll
)

// Logger is the logging capability injected into the search. *log.Logger
// satisfies it directly.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// NopLogger discards everything.
var NopLogger Logger = nopLogger{}

// Stats is the progress snapshot handed to OnProgress.
type Stats struct {
	NodesExplored  uint64
	CurrentDepth   uint32
	BestMax        uint64
	SolutionsFound uint32
	StartTime      time.Time
	LastLogTime    time.Time
}

// Config describes one search. The zero value is not runnable; N must be
// set.
type Config struct {
	// N is the target set size.
	N int

	// InitialBound is the exclusive candidate bound before the first
	// solution. 0 means DefaultBound(N). The caller may seed it from
	// persisted prior results.
	InitialBound uint64

	Mode        Mode
	ManagerKind Kind

	// EarlyExit makes the search return right after the first completed
	// solution instead of proving it minimal within the bound.
	EarlyExit bool

	// Stop is the shared cooperative stop flag; may be nil. The search
	// observes it at every node and inside the candidate loop.
	Stop *atomic.Bool

	// LogInterval throttles OnProgress invocations. 0 reports on every
	// gated node count.
	LogInterval time.Duration

	OnSolution func(n int, max uint64, set []uint64)
	OnProgress func(*Stats)
	Logger     Logger
}

// Result is the record a finished search reports and the persistence layer
// stores.
type Result struct {
	N             int           `json:"n"`
	MaxValue      uint64        `json:"max_value"`
	Set           []uint64      `json:"set"`
	Elapsed       time.Duration `json:"time"`
	Status        Status        `json:"status"`
	NodesExplored uint64        `json:"nodes_explored"`
	Timestamp     time.Time     `json:"timestamp"`
}

// DefaultBound returns the initial exclusive bound for size n: 2^(n−1)+1
// for n ≥ 1 (the doubling set {1,2,4,…,2^(n−1)} always completes below it),
// 1 for n = 0, saturating for n > 64.
func DefaultBound(n int) uint64 {
	switch {
	case n <= 0:
		return 1
	case n > 64:
		return math.MaxUint64
	default:
		return uint64(1)<<uint(n-1) + 1
	}
}

// Searcher runs the branch-and-bound search for one N. It owns its Manager
// and best-solution record; only the stop flag is shared.
type Searcher struct {
	cfg   Config
	mgr   Manager
	bound uint64

	bestMax     uint64
	hasSolution bool
	best        []uint64
	optimal     [][]uint64
	enumerate   bool

	stats Stats
	err   error
}

// NewSearcher builds a searcher for the given config, filling defaults and
// resolving the manager kind.
func NewSearcher(cfg Config) *Searcher {
	if cfg.Logger == nil {
		cfg.Logger = NopLogger
	}
	bound := cfg.InitialBound
	if bound == 0 {
		bound = DefaultBound(cfg.N)
	}
	return &Searcher{
		cfg:   cfg,
		mgr:   NewManager(cfg.ManagerKind.resolve(cfg.N)),
		bound: bound,
	}
}

// Run performs the search and returns its result. In EnumerateAll mode the
// tied sets are collected but only the first is reported; use RunAll to
// retrieve all of them.
func (s *Searcher) Run() Result {
	return s.run(s.cfg.Mode == EnumerateAll)
}

// RunAll performs the search in enumerate-all mode and returns, next to the
// result, every set of size N attaining the best maximum, in the
// lexicographic order of the traversal.
func (s *Searcher) RunAll() (Result, [][]uint64) {
	res := s.run(true)
	return res, s.optimal
}

func (s *Searcher) run(enumerate bool) Result {
	now := time.Now()
	s.stats = Stats{BestMax: s.bound, StartTime: now, LastLogTime: now}
	s.bestMax = s.bound
	s.hasSolution = false
	s.best = nil
	s.optimal = nil
	s.enumerate = enumerate
	s.err = nil

	switch {
	case s.cfg.N < 1:
		// Nothing to search for.
	case s.cfg.N == 1:
		// The only candidate worth reporting is {1}; no recursion.
		s.recordCompletion(1, []uint64{1})
	default:
		s.expand(0, 1)
	}

	res := Result{
		N:             s.cfg.N,
		Elapsed:       time.Since(s.stats.StartTime),
		NodesExplored: s.stats.NodesExplored,
		Timestamp:     time.Now(),
	}
	switch {
	case s.stopped():
		res.Status = StatusInterrupted
	case s.hasSolution:
		res.Status = StatusOptimal
	default:
		res.Status = StatusNoSolution
	}
	if s.hasSolution {
		res.MaxValue = s.bestMax
		res.Set = s.best
	}
	s.cfg.Logger.Printf("[search] n=%d status=%s max=%d nodes=%d elapsed=%s",
		res.N, res.Status, res.MaxValue, res.NodesExplored, res.Elapsed)
	return res
}

// Err returns the first manager error observed, if any. Only the iterative
// manager produces one, and only on a sequence too long for its masks.
func (s *Searcher) Err() error {
	return s.err
}

// Stats returns a snapshot of the current search statistics.
func (s *Searcher) Stats() Stats {
	return s.stats
}

func (s *Searcher) stopped() bool {
	return s.cfg.Stop != nil && s.cfg.Stop.Load()
}

// cutoff reports whether a candidate (or a lower bound on a completion
// maximum) can no longer beat the best. Enumerate-all keeps equal-max
// completions alive, so there the comparison is strict.
func (s *Searcher) cutoff(x uint64) bool {
	if s.enumerate {
		return x > s.bestMax
	}
	return x >= s.bestMax
}

// expand is one node of the search tree: at depth == N it scores the
// completed set, otherwise it enumerates candidates >= minNext in
// increasing order, pushing into the manager and popping on return.
func (s *Searcher) expand(depth int, minNext uint64) {
	if s.stopped() {
		return
	}
	s.stats.NodesExplored++
	s.stats.CurrentDepth = uint32(depth)
	s.maybeProgress()

	if depth == s.cfg.N {
		s.complete()
		return
	}

	remaining := uint64(s.cfg.N - depth - 1)

	// The cheapest completion from here takes the consecutive integers
	// minNext, minNext+1, … as the remaining elements, so its maximum is at
	// least minNext+remaining.
	if s.hasSolution && s.cutoff(minNext+remaining) {
		return
	}

	for candidate := minNext; ; candidate++ {
		if s.stopped() {
			return
		}
		if s.hasSolution {
			if s.cutoff(candidate) {
				break
			}
			if s.cutoff(candidate + remaining) {
				break
			}
		} else if candidate >= s.bound {
			break
		}

		ok, err := s.mgr.TryPush(candidate)
		if err != nil {
			s.err = err
			return
		}
		if ok {
			s.expand(depth+1, candidate+1)
			s.mgr.Pop()
			if s.err != nil {
				return
			}
			if s.cfg.EarlyExit && s.hasSolution {
				return
			}
		}
	}
}

// complete scores a depth-N assignment. Elements are pushed in increasing
// order, so the recorded maximum is the last one.
func (s *Searcher) complete() {
	n := s.mgr.Size()
	currentMax := s.mgr.Get(n - 1)

	switch {
	case !s.hasSolution || currentMax < s.bestMax:
		set := s.mgr.Snapshot(nil)
		if s.enumerate {
			s.optimal = s.optimal[:0]
		}
		s.recordCompletion(currentMax, set)
	case s.enumerate && currentMax == s.bestMax:
		s.recordCompletion(currentMax, s.mgr.Snapshot(nil))
	}
}

func (s *Searcher) recordCompletion(max uint64, set []uint64) {
	improved := !s.hasSolution || max < s.bestMax
	s.hasSolution = true
	s.bestMax = max
	s.stats.BestMax = max
	s.stats.SolutionsFound++
	if improved {
		s.best = set
		s.cfg.Logger.Printf("[search] n=%d improved max=%d set=%v nodes=%d",
			s.cfg.N, max, set, s.stats.NodesExplored)
	}
	if s.enumerate {
		s.optimal = append(s.optimal, set)
	}
	if s.cfg.OnSolution != nil {
		s.cfg.OnSolution(s.cfg.N, max, set)
	}
}

// maybeProgress invokes OnProgress on gated node counts, additionally
// throttled by LogInterval.
func (s *Searcher) maybeProgress() {
	n := s.stats.NodesExplored
	if n < progressLateAfter {
		if n&progressMaskEarly != 0 {
			return
		}
	} else if n&progressMaskLate != 0 {
		return
	}
	now := time.Now()
	if s.cfg.LogInterval > 0 && now.Sub(s.stats.LastLogTime) < s.cfg.LogInterval {
		return
	}
	s.stats.LastLogTime = now
	if s.cfg.OnProgress != nil {
		snap := s.stats
		s.cfg.OnProgress(&snap)
	}
}
