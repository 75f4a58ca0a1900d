package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/stale/internal/tracker"
)

const remoteScopeName = "github.com/steveyegge/stale/tracker"

// InstrumentedRemote wraps tracker.Remote with OTel tracing and metrics.
// Every call gets a span and is counted in stale.remote.* metrics.
type InstrumentedRemote struct {
	inner  tracker.Remote
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

var _ tracker.Remote = (*InstrumentedRemote)(nil)

// WrapRemote returns r decorated with OTel instrumentation.
// When telemetry is disabled, r is returned as-is.
func WrapRemote(r tracker.Remote) tracker.Remote {
	if !Enabled() {
		return r
	}
	return newInstrumentedRemote(r, Tracer(remoteScopeName), Meter(remoteScopeName))
}

func newInstrumentedRemote(r tracker.Remote, tracer trace.Tracer, m metric.Meter) *InstrumentedRemote {
	ops, _ := m.Int64Counter("stale.remote.operations",
		metric.WithDescription("Total remote tracker calls"),
	)
	dur, _ := m.Float64Histogram("stale.remote.operation.duration",
		metric.WithDescription("Remote tracker call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("stale.remote.errors",
		metric.WithDescription("Total remote tracker call errors"),
	)
	return &InstrumentedRemote{inner: r, tracer: tracer, ops: ops, dur: dur, errs: errs}
}

// op starts a span and counts the named remote operation.
func (r *InstrumentedRemote) op(ctx context.Context, name, owner, repo string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time, []attribute.KeyValue) {
	all := append([]attribute.KeyValue{
		attribute.String("stale.operation", name),
		attribute.String("stale.repo", owner+"/"+repo),
	}, attrs...)
	ctx, span := r.tracer.Start(ctx, "remote."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	r.ops.Add(ctx, 1, metric.WithAttributes(all[0]))
	return ctx, span, time.Now(), all[:1]
}

// done ends the span, records duration and optional error.
func (r *InstrumentedRemote) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs []attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	r.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil && !tracker.IsNotFound(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// repoOf extracts owner/repo from a search query's repo: qualifier.
func repoOf(query string) (string, string) {
	for _, field := range strings.Fields(query) {
		name, ok := strings.CutPrefix(field, "repo:")
		if !ok {
			continue
		}
		if r, err := tracker.ParseRepository(name); err == nil {
			return r.Owner, r.Name
		}
	}
	return "", ""
}

func (r *InstrumentedRemote) Search(ctx context.Context, req tracker.SearchRequest) ([]tracker.Item, error) {
	owner, repo := repoOf(req.Query)
	ctx, span, t, attrs := r.op(ctx, "Search", owner, repo,
		attribute.String("stale.query", req.Query),
		attribute.Int("stale.per_page", req.PerPage),
	)
	items, err := r.inner.Search(ctx, req)
	span.SetAttributes(attribute.Int("stale.results", len(items)))
	r.done(ctx, span, t, err, attrs)
	return items, err
}

func (r *InstrumentedRemote) GetLabel(ctx context.Context, owner, repo, name string) (*tracker.Label, error) {
	ctx, span, t, attrs := r.op(ctx, "GetLabel", owner, repo, attribute.String("stale.label", name))
	l, err := r.inner.GetLabel(ctx, owner, repo, name)
	r.done(ctx, span, t, err, attrs)
	return l, err
}

func (r *InstrumentedRemote) CreateLabel(ctx context.Context, owner, repo string, label tracker.Label) error {
	ctx, span, t, attrs := r.op(ctx, "CreateLabel", owner, repo, attribute.String("stale.label", label.Name))
	err := r.inner.CreateLabel(ctx, owner, repo, label)
	r.done(ctx, span, t, err, attrs)
	return err
}

func (r *InstrumentedRemote) AddLabels(ctx context.Context, owner, repo string, number int, labels ...string) error {
	ctx, span, t, attrs := r.op(ctx, "AddLabels", owner, repo,
		attribute.Int("stale.number", number),
		attribute.StringSlice("stale.labels", labels),
	)
	err := r.inner.AddLabels(ctx, owner, repo, number, labels...)
	r.done(ctx, span, t, err, attrs)
	return err
}

func (r *InstrumentedRemote) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	ctx, span, t, attrs := r.op(ctx, "RemoveLabel", owner, repo,
		attribute.Int("stale.number", number),
		attribute.String("stale.label", label),
	)
	err := r.inner.RemoveLabel(ctx, owner, repo, number, label)
	r.done(ctx, span, t, err, attrs)
	return err
}

func (r *InstrumentedRemote) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	ctx, span, t, attrs := r.op(ctx, "CreateComment", owner, repo, attribute.Int("stale.number", number))
	err := r.inner.CreateComment(ctx, owner, repo, number, body)
	r.done(ctx, span, t, err, attrs)
	return err
}

func (r *InstrumentedRemote) SetState(ctx context.Context, owner, repo string, number int, state tracker.State) error {
	ctx, span, t, attrs := r.op(ctx, "SetState", owner, repo,
		attribute.Int("stale.number", number),
		attribute.String("stale.state", string(state)),
	)
	err := r.inner.SetState(ctx, owner, repo, number, state)
	r.done(ctx, span, t, err, attrs)
	return err
}

func (r *InstrumentedRemote) Lock(ctx context.Context, owner, repo string, number int) error {
	ctx, span, t, attrs := r.op(ctx, "Lock", owner, repo, attribute.Int("stale.number", number))
	err := r.inner.Lock(ctx, owner, repo, number)
	r.done(ctx, span, t, err, attrs)
	return err
}

func (r *InstrumentedRemote) GetItem(ctx context.Context, owner, repo string, number int) (*tracker.Item, error) {
	ctx, span, t, attrs := r.op(ctx, "GetItem", owner, repo, attribute.Int("stale.number", number))
	item, err := r.inner.GetItem(ctx, owner, repo, number)
	r.done(ctx, span, t, err, attrs)
	return item, err
}
