package tap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/valyala/fastjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ajzo90/tap-nikabot"

// Descriptor is the static description of a stream.
type Descriptor struct {
	ID            string
	KeyProperties []string
	// ReplicationKey is the only valid replication key, "" when the stream
	// cannot be synced incrementally.
	ReplicationKey string
	Methods        ReplicationMethods
	DefaultMethod  ReplicationMethod
}

// Query is what a stream is asked to extract in one sync.
type Query struct {
	Method         ReplicationMethod
	ReplicationKey string
	// Bookmark is the stream's previous watermark, "" when absent.
	Bookmark string
	Today    Date
}

// Stream extracts the records of one entity.
type Stream interface {
	Descriptor() Descriptor

	// Extract calls emit with each page of records in source order. Values are
	// only valid during the call.
	Extract(ctx context.Context, q Query, emit func(page []*fastjson.Value) error) error
}

// QueryValidator is implemented by streams that can reject a query before
// any stream is synced.
type QueryValidator interface {
	ValidateQuery(q Query) error
}

type Streams []Stream

func (s Streams) Get(id string) (Stream, bool) {
	for _, st := range s {
		if st.Descriptor().ID == id {
			return st, true
		}
	}
	return nil, false
}

// Runner syncs the selected streams of a catalog one at a time.
type Runner struct {
	Streams Streams
	Proto   Proto
	Log     *slog.Logger
	// Now defaults to time.Now. "today" of a sync is the date of Now.
	Now    func() time.Time
	Tracer trace.Tracer
}

type plan struct {
	entry  CatalogEntry
	stream Stream
	query  Query
}

func (r *Runner) log() *slog.Logger {
	if r.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Log
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer == nil {
		return otel.Tracer(tracerName)
	}
	return r.Tracer
}

// Sync runs every selected stream of catalog and returns the resulting
// state. All streams are validated before the first request; any error
// aborts the sync and the failing stream's watermark is not written.
func (r *Runner) Sync(ctx context.Context, catalog Catalog, state State) (State, error) {
	ctx, span := r.tracer().Start(ctx, "sync")
	defer span.End()

	state = state.Clone()
	plans, err := r.plan(catalog, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}

	for _, p := range plans {
		if state, err = r.syncStream(ctx, p, state); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return state, fmt.Errorf("stream '%s': %w", p.entry.ID(), err)
		}
	}
	return state, nil
}

func (r *Runner) plan(catalog Catalog, state State) ([]plan, error) {
	today := DateOf(r.now())
	var plans []plan
	for _, entry := range catalog.Streams {
		id := entry.ID()
		if !entry.Selected() {
			r.log().Info("Skipping stream", "stream", id)
			continue
		}
		stream, ok := r.Streams.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown stream '%s'", id)
		}
		desc := stream.Descriptor()

		method, err := entry.SelectedMethod()
		if method == "" && err == nil {
			method = desc.DefaultMethod
		}
		if err != nil || !desc.Methods.Contains(method) {
			if err != nil {
				method = ReplicationMethod(entry.rawMethod())
			}
			return nil, &InvalidReplicationMethodError{Stream: id, Method: method, Supported: desc.Methods}
		}

		q := Query{Method: method, Today: today}
		if method == Incremental {
			key := entry.SelectedReplicationKey()
			if key == "" {
				key = desc.ReplicationKey
			}
			if key != desc.ReplicationKey {
				return nil, &InvalidReplicationKeyError{Stream: id, Key: key, Valid: []string{desc.ReplicationKey}}
			}
			q.ReplicationKey = key
			q.Bookmark, _ = state.Bookmark(id)
		}

		if v, ok := stream.(QueryValidator); ok {
			if err := v.ValidateQuery(q); err != nil {
				return nil, err
			}
		}
		plans = append(plans, plan{entry: entry, stream: stream, query: q})
	}
	return plans, nil
}

func (r *Runner) syncStream(ctx context.Context, p plan, state State) (State, error) {
	id := p.entry.ID()
	q := p.query
	ctx, span := r.tracer().Start(ctx, "stream "+id, trace.WithAttributes(
		attribute.String("stream", id),
		attribute.String("replication_method", string(q.Method)),
	))
	defer span.End()

	log := r.log().With("stream", id)
	log.Info("Syncing stream", "replication_method", q.Method, "bookmark", q.Bookmark)

	validator, err := NewValidator(id, p.entry.Schema)
	if err != nil {
		return state, err
	}

	var bookmarkProperties []string
	if q.ReplicationKey != "" {
		bookmarkProperties = []string{q.ReplicationKey}
	}
	sp, err := r.Proto.Open(p.entry, bookmarkProperties)
	if err != nil {
		return state, err
	}

	var (
		arena fastjson.Arena
		wm    Watermark
		count int
	)
	err = p.stream.Extract(ctx, q, func(page []*fastjson.Value) error {
		arena.Reset()
		for _, v := range page {
			if q.ReplicationKey != "" {
				wm = wm.Observe(stringValue(v.Get(q.ReplicationKey)))
			}
			NormalizeDates(&arena, v, p.entry.Schema)
			if err := validator.Validate(v); err != nil {
				return err
			}
		}
		count += len(page)
		return sp.EmitValues(page)
	})
	if err == nil {
		err = sp.Flush()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}
	span.SetAttributes(attribute.Int("records", count))
	log.Info("Synced stream", "records", count)

	if q.ReplicationKey == "" {
		return state, nil
	}
	final := NewWatermark(q.Bookmark).Merge(wm)
	if !final.IsSet() {
		return state, nil
	}
	state = state.Clone()
	state[id] = final.Value()
	if err := r.Proto.EmitState(state); err != nil {
		return state, err
	}
	log.Debug("State written", "watermark", final.Value())
	return state, nil
}

func stringValue(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNull:
		return ""
	default:
		return v.String()
	}
}
