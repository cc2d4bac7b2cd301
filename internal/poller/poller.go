// Package poller repeatedly shows the latest CloudWatch log records of a
// fixed set of sources, one tagged line per record.
package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vietdv277/cwtail/pkg/provider"
	"github.com/vietdv277/cwtail/pkg/types"
)

// DefaultLimit is the number of records shown per source per cycle
const DefaultLimit = 5

// Options is the immutable configuration of a poller
type Options struct {
	Sources     []types.LogSource
	Interval    time.Duration
	Limit       int
	Order       provider.Order
	Follow      bool          // Only show records newer than the previous cycle
	Parallel    int           // Max sources polled at once; <= 1 is sequential
	CallTimeout time.Duration // Per backend call; 0 disables
}

// cursor remembers where the previous cycle stopped reading a source
type cursor struct {
	stream string
	token  string
}

// Poller polls log sources until its context is cancelled
type Poller struct {
	opts    Options
	logs    provider.LogsProvider
	out     *Printer
	logger  *zap.Logger
	cursors []*cursor // indexed like opts.Sources
	now     func() time.Time
}

// New creates a poller writing to w
func New(logs provider.LogsProvider, w io.Writer, opts Options, logger *zap.Logger) (*Poller, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("at least one log source is required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("invalid poll interval: %s", opts.Interval)
	}

	seen := make(map[string]bool, len(opts.Sources))
	for _, s := range opts.Sources {
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
	}

	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Order == "" {
		opts.Order = provider.OrderNewest
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Copy so later changes to the caller's slice cannot leak into a run
	opts.Sources = append([]types.LogSource(nil), opts.Sources...)

	p := &Poller{
		opts:   opts,
		logs:   logs,
		out:    NewPrinter(w, opts.Sources),
		logger: logger,
		now:    time.Now,
	}
	for range opts.Sources {
		p.cursors = append(p.cursors, &cursor{})
	}

	return p, nil
}

// Run polls every source once per interval. It returns nil when ctx is
// cancelled and a *FatalLoopError if output can no longer be written.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("log poller started",
		zap.Int("sources", len(p.opts.Sources)),
		zap.Duration("interval", p.opts.Interval),
		zap.Bool("follow", p.opts.Follow))

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := p.Cycle(ctx); err != nil {
			return err
		}

		timer := time.NewTimer(p.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Stopped prints the final line after a clean shutdown
func (p *Poller) Stopped() error {
	return p.out.Message(msgStopped)
}

// Cycle polls every source once and prints the result
func (p *Poller) Cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FatalLoopError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := p.out.Header(p.now(), len(p.opts.Sources)); err != nil {
		return &FatalLoopError{Err: err}
	}

	if p.opts.Parallel > 1 {
		err = p.pollParallel(ctx)
	} else {
		err = p.pollSequential(ctx)
	}
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := p.out.Separator(); err != nil {
		return &FatalLoopError{Err: err}
	}
	return nil
}

func (p *Poller) pollSequential(ctx context.Context) error {
	for i := range p.opts.Sources {
		if ctx.Err() != nil {
			return nil
		}
		if err := p.out.print(p.pollSource(ctx, i)); err != nil {
			return &FatalLoopError{Err: err}
		}
	}
	return nil
}

// pollParallel fans out across sources, then prints each source's lines in
// configured order
func (p *Poller) pollParallel(ctx context.Context) error {
	results := make([][]line, len(p.opts.Sources))
	panics := make([]any, len(p.opts.Sources))

	var g errgroup.Group
	g.SetLimit(p.opts.Parallel)
	for i := range p.opts.Sources {
		i := i
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					panics[i] = r
				}
			}()
			results[i] = p.pollSource(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range panics {
		if r != nil {
			return &FatalLoopError{Err: fmt.Errorf("panic while polling %s: %v", p.opts.Sources[i].Name, r)}
		}
	}
	if ctx.Err() != nil {
		return nil
	}

	for _, lines := range results {
		if err := p.out.print(lines); err != nil {
			return &FatalLoopError{Err: err}
		}
	}
	return nil
}

// pollSource returns the lines for one source. Failures become an error
// line and never propagate.
func (p *Poller) pollSource(ctx context.Context, i int) []line {
	src := p.opts.Sources[i]

	records, status, err := p.fetch(ctx, i)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		p.logger.Warn("source poll failed", zap.String("source", src.Name), zap.Error(err))
		return []line{{source: i, kind: kindError, text: "Error: " + err.Error()}}
	}

	if len(records) == 0 {
		return []line{{source: i, kind: kindStatus, text: status}}
	}

	lines := make([]line, 0, len(records))
	for _, r := range records {
		lines = append(lines, line{source: i, kind: kindRecord, text: normalizeMessage(r.Message)})
	}
	return lines
}

// fetch resolves the latest stream of source i and reads its records. When
// no records are returned the status message to show is returned instead.
func (p *Poller) fetch(ctx context.Context, i int) ([]types.LogRecord, string, error) {
	src := p.opts.Sources[i]
	cur := p.cursors[i]

	start := time.Now()
	callCtx, cancel := p.callContext(ctx)
	stream, err := p.logs.LatestStream(callCtx, src.LogGroup)
	cancel()
	if err != nil {
		if errors.Is(err, provider.ErrNoStreams) || errors.Is(err, provider.ErrNotFound) {
			*cur = cursor{}
			return nil, msgNoStreams, nil
		}
		return nil, "", &SourceResolutionError{Source: src.Name, LogGroup: src.LogGroup, Err: err}
	}
	if stream == nil || stream.StreamName == "" {
		*cur = cursor{}
		return nil, msgNoStreams, nil
	}

	p.logger.Debug("resolved latest stream",
		zap.String("source", src.Name),
		zap.String("stream", stream.StreamName),
		zap.Duration("took", time.Since(start)))

	opts := &provider.RecordOptions{Limit: p.opts.Limit, Order: p.opts.Order}
	incremental := p.opts.Follow && cur.token != "" && cur.stream == stream.StreamName
	switch {
	case incremental:
		opts.After = cur.token
	case p.opts.Follow && cur.stream != "":
		// The stream rotated; read the new one from its head
		opts.Order = provider.OrderOldest
	}

	callCtx, cancel = p.callContext(ctx)
	page, err := p.logs.Records(callCtx, stream, opts)
	cancel()
	if err != nil {
		return nil, "", &RecordFetchError{Source: src.Name, Stream: stream.StreamName, Err: err}
	}

	if p.opts.Follow {
		cur.stream = stream.StreamName
		if page.NextToken != "" {
			cur.token = page.NextToken
		}
	}

	records := clampRecords(page.Records, p.opts.Limit, opts.After == "" && opts.Order == provider.OrderNewest)
	for j := range records {
		records[j].Source = src.Name
	}
	if len(records) == 0 {
		if incremental {
			return nil, msgNoNew, nil
		}
		return nil, msgNoRecent, nil
	}
	return records, "", nil
}

// clampRecords keeps at most limit records, the last ones when tail is set
func clampRecords(records []types.LogRecord, limit int, tail bool) []types.LogRecord {
	if len(records) <= limit {
		return records
	}
	if tail {
		return records[len(records)-limit:]
	}
	return records[:limit]
}

func (p *Poller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, p.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}
