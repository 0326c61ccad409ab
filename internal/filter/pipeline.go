package filter

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/observability"
)

// DefaultDelay is the debounce delay between the last edit and the apply.
const DefaultDelay = 200 * time.Millisecond

// CommitSource describes what produced a commit.
type CommitSource string

const (
	SourceApply   CommitSource = "apply"
	SourceReset   CommitSource = "reset"
	SourceHistory CommitSource = "history"
)

// Commit is delivered to subscribers whenever the committed filters change.
// Seq increases strictly with every commit.
type Commit struct {
	Seq      uint64
	Source   CommitSource
	Criteria domain.FilterCriteria
	Query    url.Values
}

// ValidateFunc is a caller hook run before a pending apply is installed.
// ctx is cancelled when the apply is superseded.
type ValidateFunc func(ctx context.Context, c domain.FilterCriteria) error

// URLSink receives the serialized committed filters (history push).
type URLSink interface {
	Push(values url.Values) error
}

// URLSinkFunc adapts a function to URLSink.
type URLSinkFunc func(values url.Values) error

// Push calls f.
func (f URLSinkFunc) Push(values url.Values) error { return f(values) }

// Notifier surfaces a transient, non-fatal apply failure.
type Notifier interface {
	NotifyFailure(c domain.FilterCriteria, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(c domain.FilterCriteria, err error)

// NotifyFailure calls f.
func (f NotifierFunc) NotifyFailure(c domain.FilterCriteria, err error) { f(c, err) }

// Token identifies one scheduled apply. It is valid until the next
// edit, reset or history event.
type Token struct {
	gen uint64
	ctx context.Context
}

// Context is cancelled as soon as the token is superseded.
func (t Token) Context() context.Context { return t.ctx }

// Options configures a Pipeline.
type Options struct {
	Delay     time.Duration
	Scheduler Scheduler
	Validate  ValidateFunc
	Sink      URLSink
	Notifier  Notifier
	Logger    *zap.Logger
}

// Pipeline owns the ui and committed filter snapshots.
// Edits update the ui snapshot synchronously; the committed snapshot changes
// only when a debounced apply settles with a still-valid token.
type Pipeline struct {
	opts   Options
	logger *zap.Logger

	mu        sync.Mutex
	ui        domain.FilterCriteria
	committed domain.FilterCriteria
	gen       uint64
	seq       uint64
	cancel    context.CancelFunc
	timer     Timer
	pending   bool
	closed    bool

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(Commit)
	lastSeq     uint64
}

// NewPipeline creates a pipeline with empty filters.
func NewPipeline(opts Options) *Pipeline {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		opts:        opts,
		logger:      logger.Named("filter"),
		subscribers: make(map[int]func(Commit)),
	}
}

// UIFilters returns the snapshot the user is editing.
func (p *Pipeline) UIFilters() domain.FilterCriteria {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ui
}

// CommittedFilters returns the snapshot consumers aggregate over.
func (p *Pipeline) CommittedFilters() domain.FilterCriteria {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.committed
}

// Pending reports whether an apply is scheduled or in flight.
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Subscribe registers fn for commit notifications and returns a function
// that removes it. fn runs outside the filter lock but must not call
// Subscribe or the returned cancel function.
func (p *Pipeline) Subscribe(fn func(Commit)) func() {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		delete(p.subscribers, id)
	}
}

// Edit applies patch to the ui filters and schedules a debounced apply,
// superseding any apply still pending. Returns the new ui filters.
// Concurrent edits to different fields all survive.
func (p *Pipeline) Edit(patch domain.FilterPatch) domain.FilterCriteria {
	return p.update(func(cur domain.FilterCriteria) domain.FilterCriteria {
		return cur.With(patch)
	})
}

// Set replaces the ui filters wholesale and schedules a debounced apply.
func (p *Pipeline) Set(next domain.FilterCriteria) domain.FilterCriteria {
	return p.update(func(domain.FilterCriteria) domain.FilterCriteria {
		return next
	})
}

// update derives the next ui filters from the current ones under p.mu.
func (p *Pipeline) update(fn func(domain.FilterCriteria) domain.FilterCriteria) domain.FilterCriteria {
	p.mu.Lock()
	next := fn(p.ui)
	if p.closed {
		p.mu.Unlock()
		return next
	}
	p.ui = next
	tok := p.supersedeLocked()
	p.pending = true
	edited := time.Now()
	p.timer = p.opts.Scheduler.AfterFunc(p.opts.Delay, func() {
		p.settle(tok, next, edited)
	})
	p.mu.Unlock()

	observability.RecordFilterEvent("edit")
	return next
}

// Reset clears both snapshots immediately and cancels any pending apply.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.supersedeLocked()
	p.pending = false
	p.ui = domain.FilterCriteria{}
	p.committed = domain.FilterCriteria{}
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	observability.RecordFilterEvent("reset")
	p.logger.Info("filters reset")

	query := url.Values{}
	if p.opts.Sink != nil {
		if err := p.opts.Sink.Push(query); err != nil {
			p.logger.Warn("push reset query", zap.Error(err))
		}
	}
	p.publish(Commit{Seq: seq, Source: SourceReset, Query: query})
}

// ForceFromHistory installs the filters encoded in values into both
// snapshots, bypassing debounce. Any pending apply is cancelled.
// An unparseable query returns ErrInvalidQuery and leaves state untouched.
func (p *Pipeline) ForceFromHistory(values url.Values) error {
	c, err := Parse(values)
	if err != nil {
		return err
	}
	query, err := Serialize(c)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.supersedeLocked()
	p.pending = false
	p.ui = c
	p.committed = c
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	observability.RecordFilterEvent("history")
	p.logger.Info("filters forced from history", zap.String("query", query.Encode()))
	p.publish(Commit{Seq: seq, Source: SourceHistory, Criteria: c, Query: query})
	return nil
}

// Close cancels any pending apply. Later calls are no-ops.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.supersedeLocked()
	p.pending = false
	p.closed = true
}

// supersedeLocked invalidates the current token and issues a fresh one.
func (p *Pipeline) supersedeLocked() Token {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	return Token{gen: p.gen, ctx: ctx}
}

func (p *Pipeline) valid(tok Token) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && tok.gen == p.gen
}

// settle runs when the debounce delay for tok elapses.
func (p *Pipeline) settle(tok Token, next domain.FilterCriteria, edited time.Time) {
	if !p.valid(tok) {
		p.discard(tok)
		return
	}

	var err error
	if p.opts.Validate != nil {
		err = p.opts.Validate(tok.ctx, next)
	}
	var query url.Values
	if err == nil {
		query, err = Serialize(next)
	}

	p.mu.Lock()
	if p.closed || tok.gen != p.gen {
		p.mu.Unlock()
		p.discard(tok)
		return
	}
	if err != nil {
		p.pending = false
		p.mu.Unlock()
		p.fail(next, err)
		return
	}
	rollback := p.committed
	p.committed = next
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	if p.opts.Sink != nil {
		if err := p.opts.Sink.Push(query); err != nil {
			p.mu.Lock()
			// Only undo our own install; a newer commit owns the state otherwise.
			if p.seq == seq {
				p.committed = rollback
			}
			if tok.gen == p.gen {
				p.pending = false
			}
			p.mu.Unlock()
			p.fail(next, fmt.Errorf("push query: %w", err))
			return
		}
	}

	p.mu.Lock()
	if tok.gen == p.gen {
		p.pending = false
	}
	p.mu.Unlock()

	observability.RecordFilterEvent("commit")
	observability.RecordFilterSettle(time.Since(edited).Seconds())
	p.logger.Debug("filters committed", zap.String("query", query.Encode()))
	p.publish(Commit{Seq: seq, Source: SourceApply, Criteria: next, Query: query})
}

func (p *Pipeline) discard(tok Token) {
	observability.RecordFilterEvent("discard")
	p.logger.Debug("stale apply discarded", zap.Uint64("generation", tok.gen))
}

func (p *Pipeline) fail(attempted domain.FilterCriteria, err error) {
	observability.RecordFilterEvent("rollback")
	p.logger.Warn("filter apply failed, rolled back", zap.Error(err))
	if p.opts.Notifier != nil {
		p.opts.Notifier.NotifyFailure(attempted, err)
	}
}

// publish delivers c to subscribers unless a newer commit was already delivered.
func (p *Pipeline) publish(c Commit) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	if c.Seq <= p.lastSeq {
		return
	}
	p.lastSeq = c.Seq
	for _, fn := range p.subscribers {
		fn(c)
	}
}
