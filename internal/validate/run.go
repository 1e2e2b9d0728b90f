package validate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snapetech/iptvmirror/internal/store"
)

// Run checks urls with at most Workers in flight and per-host concurrency capped
// by HostSem. Fresh cache rows are reused without traffic. When ctx is cancelled,
// scheduling stops and the report covers what finished.
func (v *Validator) Run(ctx context.Context, urls []string) Report {
	v.init()
	start := time.Now()
	results := make([]Result, len(urls))
	done := make([]bool, len(urls))

	var g errgroup.Group
	g.SetLimit(v.Workers)
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		if v.Cache != nil {
			if valid, fresh := v.Cache.Get(ctx, u, v.CacheTTL); fresh {
				results[i] = Result{URL: u, Outcome: OutcomeCached, Valid: valid}
				done[i] = true
				continue
			}
		}
		g.Go(func() error {
			release, err := v.HostSem.Acquire(ctx, u)
			if err != nil {
				results[i] = Result{URL: u, Outcome: OutcomeError, Err: err}
				done[i] = true
				return nil
			}
			defer release()
			r := v.Check(ctx, u)
			ev := v.Log.Debug().Str("url", u).Str("outcome", string(r.Outcome)).
				Int("status", r.StatusCode).Str("method", r.Method).Int("attempts", r.Attempts).
				Dur("latency", r.Latency)
			if r.Proxy != "" {
				ev = ev.Str("proxy", r.Proxy)
			}
			if r.Err != nil {
				ev = ev.Err(r.Err)
			}
			ev.Msg("probed")
			results[i] = r
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{Duration: time.Since(start)}
	var entries []store.Entry
	for i, r := range results {
		if !done[i] {
			rep.Pending++
			continue
		}
		rep.Results = append(rep.Results, r)
		if r.Valid {
			rep.Valid = append(rep.Valid, r.URL)
		}
		switch r.Outcome {
		case OutcomeInvalid:
			rep.Invalid++
		case OutcomeSkipped:
			rep.Skipped++
		case OutcomeError:
			rep.Errors++
		case OutcomeCached:
			rep.Cached++
		}
		if r.Outcome == OutcomeValid || r.Outcome == OutcomeInvalid {
			entries = append(entries, store.Entry{URL: r.URL, Valid: r.Valid, StatusCode: r.StatusCode, CheckedAt: time.Now()})
		}
	}
	if v.Cache != nil && len(entries) > 0 {
		if err := v.Cache.PutResults(context.WithoutCancel(ctx), entries); err != nil {
			v.Log.Warn().Err(err).Msg("probe cache write failed")
		}
	}
	v.Metrics.SetValidLinks(len(rep.Valid))
	v.Log.Info().Int("candidates", len(urls)).Int("valid", len(rep.Valid)).Int("invalid", rep.Invalid).
		Int("skipped", rep.Skipped).Int("errors", rep.Errors).Int("cached", rep.Cached).
		Int("pending", rep.Pending).Dur("took", rep.Duration).Msg("validation finished")
	return rep
}
