package watcher

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/conneroisu/spry/internal/errors"
	"github.com/conneroisu/spry/internal/logging"
)

// RootSource exposes the current serving root and a channel that fires when
// it changes.
type RootSource interface {
	Root() string
	Rebind() <-chan struct{}
}

// Publisher receives one reload signal per coalesced change.
type Publisher interface {
	Publish()
}

// PipelineConfig tunes the pipeline.
type PipelineConfig struct {
	Debounce     time.Duration
	RetryInitial time.Duration
	RetryMax     time.Duration
	Ignore       []string
}

// Pipeline keeps exactly one FileWatcher bound to the current serving root.
// When the root changes the previous watch is torn down before the new one is
// established; bind failures are retried with exponential backoff and never
// stop the pipeline.
type Pipeline struct {
	source RootSource
	pub    Publisher
	cfg    PipelineConfig
	logger logging.Logger
}

// NewPipeline wires a pipeline. Call Run to arm it.
func NewPipeline(source RootSource, pub Publisher, cfg PipelineConfig, logger logging.Logger) *Pipeline {
	return &Pipeline{
		source: source,
		pub:    pub,
		cfg:    cfg,
		logger: logger.WithComponent("watcher"),
	}
}

// Run drives the unarmed -> watching -> retrying state machine until ctx is
// done.
func (p *Pipeline) Run(ctx context.Context) {
	retry := p.newBackoff()

	for {
		if ctx.Err() != nil {
			return
		}

		root := p.source.Root()

		fw, err := NewFileWatcher(root, p.cfg.Debounce, p.cfg.Ignore)
		if err != nil {
			wait := retry.NextBackOff()
			p.logger.Warn(ctx, errors.WatchBindFailure(root, err),
				"watch bind failed, retrying", "after", wait.String())

			if !p.sleepOrRebind(ctx, wait) {
				return
			}
			continue
		}
		retry.Reset()

		fw.SetHandler(p.pub.Publish)

		watchCtx, cancel := context.WithCancel(ctx)
		fw.Start(watchCtx)
		p.logger.Info(ctx, "watching", "root", root)

		select {
		case <-ctx.Done():
			cancel()
			_ = fw.Stop()
			return
		case <-p.source.Rebind():
			// Root changed: release the old watch before binding
			// the new one so only a single watch is ever active.
			cancel()
			_ = fw.Stop()
		}
	}
}

// sleepOrRebind waits for the backoff interval, waking early if the root
// changes meanwhile. Returns false when ctx is done.
func (p *Pipeline) sleepOrRebind(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-p.source.Rebind():
		return true
	}
}

func (p *Pipeline) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.RetryInitial
	b.MaxInterval = p.cfg.RetryMax
	b.MaxElapsedTime = 0 // retry indefinitely
	b.Reset()
	return b
}
