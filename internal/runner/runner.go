// Package runner farms independent search jobs across a worker pool. Each
// job solves one N with its own manager and searcher; the only shared state
// is the store, the stop flag, and the event stream.
package runner

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ashm-dev/first-erdos-problem/internal/sidon"
	"github.com/ashm-dev/first-erdos-problem/internal/storage"
)

// Event types published on the pool's event stream.
const (
	EventProgress = "progress"
	EventSolution = "solution"
	EventSkipped  = "skipped"
	EventDone     = "done"
)

// Event is one observation from a running job, consumed by the CLI logger
// and the status API.
type Event struct {
	Type      string    `json:"type"`
	JobID     string    `json:"job_id"`
	Worker    int       `json:"worker"`
	N         int       `json:"n"`
	BestMax   uint64    `json:"best_max,omitempty"`
	Set       []uint64  `json:"set,omitempty"`
	Nodes     uint64    `json:"nodes,omitempty"`
	Depth     uint32    `json:"depth,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Options configures a pool.
type Options struct {
	// Workers is the number of concurrent searches. 0 means GOMAXPROCS.
	Workers int

	Kind      sidon.Kind
	Mode      sidon.Mode
	EarlyExit bool

	// Bound overrides the initial bound for every job; 0 uses the default,
	// tightened by persisted prior results.
	Bound uint64

	LogInterval time.Duration
	Logger      sidon.Logger
}

// Pool runs searches for a range of N values.
type Pool struct {
	store  *storage.Store
	opts   Options
	stop   atomic.Bool
	events chan Event
}

// New creates a pool. store may be nil, in which case nothing is skipped or
// persisted.
func New(store *storage.Store, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = sidon.NopLogger
	}
	return &Pool{
		store:  store,
		opts:   opts,
		events: make(chan Event, 256),
	}
}

// Events returns the pool's event stream. It is closed when Run returns.
func (p *Pool) Events() <-chan Event {
	return p.events
}

// Stop signals every running search to stop.
func (p *Pool) Stop() {
	p.stop.Store(true)
}

// Stopped reports whether Stop has been called.
func (p *Pool) Stopped() bool {
	return p.stop.Load()
}

// Run solves every N in [from, to] and blocks until all jobs finish or the
// pool is stopped. The event channel is closed before returning.
func (p *Pool) Run(from, to int) {
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go p.worker(i, jobs, &wg)
	}

	for n := from; n <= to; n++ {
		if p.stop.Load() {
			break
		}
		jobs <- n
	}
	close(jobs)

	wg.Wait()
	close(p.events)
}

func (p *Pool) worker(id int, jobs <-chan int, wg *sync.WaitGroup) {
	defer wg.Done()
	for n := range jobs {
		if p.stop.Load() {
			continue
		}
		p.runJob(id, n)
	}
}

func (p *Pool) runJob(workerID, n int) {
	jobID := uuid.NewString()

	if p.store != nil {
		solved, err := p.store.HasOptimal(n)
		if err != nil {
			p.opts.Logger.Printf("[runner] job=%s n=%d store read failed: %v", jobID, n, err)
		} else if solved {
			p.opts.Logger.Printf("[runner] job=%s n=%d already solved, skipping", jobID, n)
			p.send(Event{Type: EventSkipped, JobID: jobID, Worker: workerID, N: n, Timestamp: time.Now()})
			return
		}
	}

	cfg := sidon.Config{
		N:            n,
		InitialBound: p.jobBound(n),
		Mode:         p.opts.Mode,
		ManagerKind:  p.opts.Kind,
		EarlyExit:    p.opts.EarlyExit,
		Stop:         &p.stop,
		LogInterval:  p.opts.LogInterval,
		Logger:       p.opts.Logger,
		OnSolution: func(n int, max uint64, set []uint64) {
			p.send(Event{
				Type:      EventSolution,
				JobID:     jobID,
				Worker:    workerID,
				N:         n,
				BestMax:   max,
				Set:       append([]uint64(nil), set...),
				Timestamp: time.Now(),
			})
		},
		OnProgress: func(st *sidon.Stats) {
			p.trySend(Event{
				Type:      EventProgress,
				JobID:     jobID,
				Worker:    workerID,
				N:         n,
				BestMax:   st.BestMax,
				Nodes:     st.NodesExplored,
				Depth:     st.CurrentDepth,
				Timestamp: time.Now(),
			})
		},
	}

	searcher := sidon.NewSearcher(cfg)

	var res sidon.Result
	var sets [][]uint64
	if p.opts.Mode == sidon.EnumerateAll {
		res, sets = searcher.RunAll()
	} else {
		res = searcher.Run()
	}
	if err := searcher.Err(); err != nil {
		p.opts.Logger.Printf("[runner] job=%s n=%d search failed: %v", jobID, n, err)
	}

	if p.store != nil && searcher.Err() == nil {
		if err := p.store.SaveResult(&res); err != nil {
			p.opts.Logger.Printf("[runner] job=%s n=%d save result: %v", jobID, n, err)
		}
		if res.Status == sidon.StatusOptimal && len(sets) > 0 {
			if err := p.store.SaveOptimalSets(n, sets); err != nil {
				p.opts.Logger.Printf("[runner] job=%s n=%d save optimal sets: %v", jobID, n, err)
			}
		}
	}

	p.send(Event{
		Type:      EventDone,
		JobID:     jobID,
		Worker:    workerID,
		N:         n,
		BestMax:   res.MaxValue,
		Set:       res.Set,
		Nodes:     res.NodesExplored,
		Status:    res.Status.String(),
		Timestamp: time.Now(),
	})
}

// jobBound picks the initial bound: an explicit override wins, then a
// persisted best from a previous run when it beats the default.
func (p *Pool) jobBound(n int) uint64 {
	if p.opts.Bound != 0 {
		return p.opts.Bound
	}
	bound := sidon.DefaultBound(n)
	if p.store != nil {
		if best, ok, err := p.store.BestBound(n); err == nil && ok && best < bound {
			bound = best
		}
	}
	return bound
}

// send blocks; used for events that must not be lost.
func (p *Pool) send(ev Event) {
	p.events <- ev
}

// trySend drops the event when the stream is backed up. Progress events are
// advisory, and a slow consumer must not suspend the search.
func (p *Pool) trySend(ev Event) {
	select {
	case p.events <- ev:
	default:
	}
}
