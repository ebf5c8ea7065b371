package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/ashm-dev/first-erdos-problem/internal/api"
	"github.com/ashm-dev/first-erdos-problem/internal/runner"
	"github.com/ashm-dev/first-erdos-problem/internal/sidon"
	"github.com/ashm-dev/first-erdos-problem/internal/storage"
)

var (
	flagN           = flag.Int("n", 0, "solve a single set size")
	flagFrom        = flag.Int("from", 2, "first set size of the range")
	flagTo          = flag.Int("to", 10, "last set size of the range")
	flagWorkers     = flag.Int("workers", 0, "concurrent searches (0 = GOMAXPROCS)")
	flagIterative   = flag.Bool("iterative", false, "force the memory-free iterative manager")
	flagAll         = flag.Bool("all", false, "enumerate every optimal set, not just one")
	flagEarly       = flag.Bool("early-exit", false, "stop each search at its first solution")
	flagBound       = flag.Uint64("bound", 0, "initial bound override (0 = default)")
	flagDB          = flag.String("db", "", "database directory (default: platform data dir)")
	flagNoDB        = flag.Bool("no-db", false, "run without persistence")
	flagServe       = flag.String("serve", "", "serve the status API on this address, e.g. :8080")
	flagLogInterval = flag.Duration("log-interval", 5*time.Second, "minimum time between progress lines")
	flagQuiet       = flag.Bool("quiet", false, "suppress progress output")
	flagCPUProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *flagCPUProfile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	from, to := *flagFrom, *flagTo
	if *flagN > 0 {
		from, to = *flagN, *flagN
	}
	if from < 1 || to < from {
		log.Fatalf("invalid range [%d, %d]", from, to)
	}

	store := openStore()
	if store != nil {
		defer store.Close()
	}

	logger := sidon.Logger(log.Default())
	if *flagQuiet {
		logger = sidon.NopLogger
	}

	opts := runner.Options{
		Workers:     *flagWorkers,
		Mode:        sidon.FirstImprovement,
		EarlyExit:   *flagEarly,
		Bound:       *flagBound,
		LogInterval: *flagLogInterval,
		Logger:      logger,
	}
	if *flagIterative {
		opts.Kind = sidon.Iterative
	}
	if *flagAll {
		opts.Mode = sidon.EnumerateAll
	}

	pool := runner.New(store, opts)

	var hub *api.Hub
	if *flagServe != "" {
		hub = api.NewHub(logger)
		go hub.Run()
		router := api.NewRouter(store, hub)
		go func() {
			log.Printf("status API listening on %s", *flagServe)
			if err := http.ListenAndServe(*flagServe, router); err != nil {
				log.Printf("status API stopped: %v", err)
			}
		}()
	}

	// First SIGINT asks the searches to stop; a second one kills the
	// process the usual way.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("interrupt received, stopping searches")
		pool.Stop()
		signal.Stop(sigCh)
	}()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range pool.Events() {
			if hub != nil {
				if data, err := json.Marshal(ev); err == nil {
					hub.Broadcast(data)
				}
			}
			switch ev.Type {
			case runner.EventSolution:
				log.Printf("n=%d improved: max=%d set=%v", ev.N, ev.BestMax, ev.Set)
			case runner.EventDone:
				log.Printf("n=%d %s: max=%d set=%v nodes=%d", ev.N, ev.Status, ev.BestMax, ev.Set, ev.Nodes)
			case runner.EventSkipped:
				log.Printf("n=%d already solved, skipped", ev.N)
			case runner.EventProgress:
				if !*flagQuiet {
					log.Printf("n=%d depth=%d nodes=%d best=%d", ev.N, ev.Depth, ev.Nodes, ev.BestMax)
				}
			}
		}
	}()

	pool.Run(from, to)
	<-drained
	if hub != nil {
		hub.Close()
	}

	if pool.Stopped() {
		log.Println("stopped before completing the range")
	}
}

func openStore() *storage.Store {
	if *flagNoDB {
		return nil
	}
	var (
		store *storage.Store
		err   error
	)
	if *flagDB != "" {
		store, err = storage.Open(*flagDB)
	} else {
		store, err = storage.OpenDefault()
	}
	if err != nil {
		log.Printf("Warning: persistence disabled: %v", err)
		return nil
	}
	return store
}
