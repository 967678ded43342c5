// Package jobs exposes the periodic maintenance operations of the engine
// under stable names so an external scheduler can trigger them, either
// through the HTTP job endpoint or cmd/jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/booking"
)

// Job names.
const (
	SweepNoShows      = "sweep-no-shows"
	CleanupChallenges = "cleanup-challenges"
)

// ErrUnknownJob is returned by Registry.Run for a name that was never
// registered.
var ErrUnknownJob = errors.New("jobs: unknown job")

// Job is one named maintenance task.  Run returns a JSON-serializable
// summary of what it did.
type Job interface {
	Name() string
	Run(ctx context.Context) (any, error)
}

// Func adapts a function to Job.
type Func struct {
	JobName string
	Fn      func(ctx context.Context) (any, error)
}

func (f Func) Name() string { return f.JobName }
func (f Func) Run(ctx context.Context) (any, error) { return f.Fn(ctx) }

// Registry looks jobs up by name.
type Registry struct {
	jobs map[string]Job
	log  zerolog.Logger
}

// NewRegistry registers jobs.  A later job with the same name replaces an
// earlier one.
func NewRegistry(log zerolog.Logger, jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs)), log: log}
	for _, j := range jobs {
		r.jobs[j.Name()] = j
	}
	return r
}

// ForEngine returns the registry of the engine's maintenance jobs.
func ForEngine(eng *booking.Engine, log zerolog.Logger) *Registry {
	return NewRegistry(log,
		Func{JobName: SweepNoShows, Fn: func(ctx context.Context) (any, error) {
			return eng.Reconciler.Sweep(ctx)
		}},
		Func{JobName: CleanupChallenges, Fn: func(ctx context.Context) (any, error) {
			n, err := eng.Gate.Cleanup(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int64{"deleted": n}, nil
		}},
	)
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run executes the named job and logs its duration and outcome.
func (r *Registry) Run(ctx context.Context, name string) (any, error) {
	j, ok := r.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	start := time.Now()
	res, err := j.Run(ctx)
	if err != nil {
		r.log.Error().Err(err).Str("job", name).Dur("took", time.Since(start)).Msg("job failed")
		return nil, fmt.Errorf("job %s: %w", name, err)
	}
	r.log.Info().Str("job", name).Dur("took", time.Since(start)).Interface("result", res).Msg("job finished")
	return res, nil
}
