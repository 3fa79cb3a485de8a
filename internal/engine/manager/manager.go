package manager

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/model"
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Analyzer classifies the flows of one capture file.
type Analyzer interface {
	AnalyzeFile(path string) ([]model.Verdict, error)
}

// Result is the outcome for one capture. SinkErr is set when the verdicts
// were produced but could not be delivered.
type Result struct {
	Path     string
	Verdicts []model.Verdict
	Err      error
	SinkErr  error
}

type job struct {
	index int
	path  string
}

// Manager analyzes batches of captures on a fixed pool of workers and
// forwards verdicts to an optional writer.
type Manager struct {
	analyzer Analyzer
	writer   model.VerdictWriter

	numWorkers       int
	sizeOfJobChannel int
}

// NewManager creates a Manager. writer may be nil.
func NewManager(cfg config.ManagerConfig, analyzer Analyzer, writer model.VerdictWriter) (*Manager, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("manager needs an analyzer")
	}
	if cfg.NumWorkers <= 0 {
		return nil, fmt.Errorf("num_workers must be positive, got %d", cfg.NumWorkers)
	}
	size := cfg.SizeOfJobChannel
	if size < 0 {
		size = 0
	}
	return &Manager{
		analyzer:         analyzer,
		writer:           writer,
		numWorkers:       cfg.NumWorkers,
		sizeOfJobChannel: size,
	}, nil
}

// Run analyzes every path and returns results in input order. Captures not
// yet started when ctx is cancelled report ctx.Err().
func (m *Manager) Run(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	jobs := make(chan job, m.sizeOfJobChannel)

	workers := m.numWorkers
	if workers > len(paths) {
		workers = len(paths)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = m.process(ctx, j.path)
			}
		}()
	}
	log.Debugf("Manager started with %d workers for %d captures.", workers, len(paths))

	for i, p := range paths {
		jobs <- job{index: i, path: p}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (m *Manager) process(ctx context.Context, path string) Result {
	res := Result{Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	res.Verdicts, res.Err = m.analyzer.AnalyzeFile(path)
	if res.Err != nil {
		log.Warnf("Failed to analyze %s: %v", path, res.Err)
		return res
	}
	if m.writer != nil && len(res.Verdicts) > 0 {
		if err := m.writer.Write(ctx, path, res.Verdicts); err != nil {
			log.Errorf("Failed to write verdicts for %s: %v", path, err)
			res.SinkErr = err
		}
	}
	return res
}
