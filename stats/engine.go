package stats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"qsoview/contest"
	"qsoview/qsolog"
)

// Source is the read side of the QSO log.
type Source interface {
	LatestQSO(ctx context.Context) (qsolog.QSO, bool, error)
	Aggregates(ctx context.Context, q qsolog.AggregateQuery) (qsolog.Aggregates, error)
}

// Freshness describes the outcome of one poll for the status ticker.
type Freshness struct {
	// Text is the last-QSO line; set only when Changed.
	Text    string
	Changed bool
	// Err is the read failure, if any. The watermark is unchanged on error.
	Err error
}

// NoQSOsText is the freshness line for an empty log.
const NoQSOsText = "No QSOs logged yet"

// Engine recomputes snapshots when the log has advanced past a watermark.
type Engine struct {
	src     Source
	params  Params
	tracker *Tracker
	logf    func(string, ...any)
}

// NewEngine builds an engine over src. tracker and logf may be nil.
func NewEngine(src Source, params Params, tracker *Tracker, logf func(string, ...any)) *Engine {
	if logf == nil {
		logf = log.Printf
	}
	return &Engine{src: src, params: params.normalized(), tracker: tracker, logf: logf}
}

// Params returns the effective snapshot parameters.
func (e *Engine) Params() Params { return e.params }

// Poll checks the log against wm and, when it has advanced, returns the new
// watermark and a fresh snapshot. A nil snapshot means nothing changed or
// the read failed (see Freshness.Err); the returned watermark never moves
// backwards.
func (e *Engine) Poll(ctx context.Context, wm Watermark) (Watermark, *Snapshot, Freshness) {
	e.tracker.Increment(EventPoll)
	latest, ok, err := e.src.LatestQSO(ctx)
	if err != nil {
		e.tracker.Increment(EventReadError)
		return wm, nil, Freshness{Err: err}
	}

	if !ok {
		if wm.Observed {
			if wm.Timestamp > 0 {
				e.logf("stats: log is empty but watermark is %d; keeping previous snapshot", wm.Timestamp)
			}
			e.tracker.Increment(EventNoop)
			return wm, nil, Freshness{}
		}
		e.tracker.Increment(EventRecompute)
		return Watermark{Observed: true}, EmptySnapshot(e.params), Freshness{Text: NoQSOsText, Changed: true}
	}

	if wm.Observed {
		switch {
		case latest.Timestamp == wm.Timestamp:
			e.tracker.Increment(EventNoop)
			return wm, nil, Freshness{}
		case latest.Timestamp < wm.Timestamp:
			e.logf("stats: latest QSO %d is older than watermark %d; ignoring", latest.Timestamp, wm.Timestamp)
			e.tracker.Increment(EventNoop)
			return wm, nil, Freshness{}
		}
	}

	agg, err := e.src.Aggregates(ctx, qsolog.AggregateQuery{
		Through:         latest.Timestamp,
		RateWindowStart: latest.Timestamp - int64(e.params.RateWindow/time.Second),
		RateLimit:       e.params.TopOperators,
		SliceWidth:      int64(e.params.SliceWidth / time.Second),
	})
	if err != nil {
		e.tracker.Increment(EventReadError)
		return wm, nil, Freshness{Err: err}
	}
	e.tracker.Increment(EventRecompute)
	snap := BuildSnapshot(agg, latest.Timestamp, e.params)
	next := Watermark{Timestamp: latest.Timestamp, Observed: true}
	return next, snap, Freshness{Text: FreshnessText(latest, agg.Total), Changed: true}
}

// FreshnessText formats the last-QSO ticker line.
func FreshnessText(q qsolog.QSO, total int64) string {
	at := time.Unix(q.Timestamp, 0).UTC().Format("15:04:05")
	return fmt.Sprintf("Last QSO: %s %s %s on %s by %s at %s (%s QSOs)",
		q.Callsign, q.Exchange, q.Section, contest.BandName(q.BandID), q.Operator, at, humanize.Comma(total))
}
