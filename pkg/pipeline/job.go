package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is a pipeline run on a background goroutine.
type Job struct {
	progress chan Progress
	cancel   context.CancelFunc
	done     chan struct{}

	result *Result
	err    error
}

// Start runs p on req in the background. The caller must eventually call
// Wait; Cancel stops the run at the next page or cell boundary.
func Start(ctx context.Context, p *Pipeline, req Request) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		progress: make(chan Progress, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	events := make(chan Progress, 64)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		res, err := p.Run(gctx, req, func(pr Progress) { events <- pr })
		if err != nil {
			return err
		}
		j.result = res
		return nil
	})
	g.Go(func() error {
		defer close(j.progress)
		for ev := range events {
			j.publish(ev)
		}
		return nil
	})

	go func() {
		j.err = g.Wait()
		cancel()
		close(j.done)
	}()
	return j
}

// publish never blocks: a consumer that falls behind sees the newest event.
func (j *Job) publish(ev Progress) {
	select {
	case j.progress <- ev:
		return
	default:
	}
	select {
	case <-j.progress:
	default:
	}
	select {
	case j.progress <- ev:
	default:
	}
}

// Progress delivers progress events. The channel is closed when the run ends,
// and the last event before closing is the final one emitted.
func (j *Job) Progress() <-chan Progress { return j.progress }

// Cancel asks the run to stop.
func (j *Job) Cancel() { j.cancel() }

// Done is closed when the run has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the run ends and returns its outcome.
func (j *Job) Wait() (*Result, error) {
	<-j.done
	return j.result, j.err
}
