package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	mdusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/domain/entity"
	thentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
)

// Job names recorded in Status.
const (
	JobFullUpdate   = "full_update"
	JobHeatmap      = "heatmap_update"
	JobSingleTicker = "single_ticker_update"
)

// stalenessPeriod is the document whose generated_at decides IsStale.
const stalenessPeriod = mdentity.Period1M

// Status is a point-in-time view of the scheduler.
type Status struct {
	Running        bool       `json:"running"`
	CurrentJob     string     `json:"current_job,omitempty"`
	LastRunID      string     `json:"last_run_id,omitempty"`
	LastJob        string     `json:"last_job,omitempty"`
	LastStartedAt  *time.Time `json:"last_started_at,omitempty"`
	LastFinishedAt *time.Time `json:"last_finished_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPeriods overrides the periods for which snapshots are produced.
func WithPeriods(periods ...mdentity.Period) Option {
	return func(s *Scheduler) { s.periods = periods }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler recomputes snapshot documents. At most one job runs at a time;
// a second request fails immediately with ErrAlreadyRunning.
type Scheduler struct {
	data    MarketData
	themes  ThemeIndex
	store   SnapshotStore
	periods []mdentity.Period
	build   themeBuilder
	now     func() time.Time
	logger  zerolog.Logger

	gate   Gate
	mu     sync.Mutex
	status Status
}

// NewScheduler は Scheduler を生成します。
func NewScheduler(data MarketData, themes ThemeIndex, store SnapshotStore, logger zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		data:    data,
		themes:  themes,
		store:   store,
		periods: mdentity.SnapshotPeriods,
		build:   buildTheme,
		now:     time.Now,
		logger:  logger.With().Str("component", "precompute").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type run struct {
	id      string
	job     string
	started time.Time
	logger  zerolog.Logger
}

// begin takes the gate and records the start of a job.
func (s *Scheduler) begin(job string) (*run, error) {
	if !s.gate.TryAcquire() {
		s.logger.Warn().Str("job", job).Msg("update already in progress, skipping")
		return nil, ErrAlreadyRunning
	}
	r := &run{id: uuid.NewString(), job: job, started: s.now()}
	r.logger = s.logger.With().Str("run_id", r.id).Str("job", job).Logger()

	s.mu.Lock()
	started := r.started
	s.status.Running = true
	s.status.CurrentJob = job
	s.status.LastRunID = r.id
	s.status.LastJob = job
	s.status.LastStartedAt = &started
	s.mu.Unlock()

	r.logger.Info().Msg("run started")
	return r, nil
}

// finish records the outcome and releases the gate.
func (s *Scheduler) finish(r *run, err error) {
	finished := s.now()

	s.mu.Lock()
	s.status.Running = false
	s.status.CurrentJob = ""
	s.status.LastFinishedAt = &finished
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	s.gate.Release()

	elapsed := finished.Sub(r.started)
	if err != nil {
		r.logger.Error().Err(err).Dur("elapsed", elapsed).Msg("run failed")
		return
	}
	r.logger.Info().Dur("elapsed", elapsed).Msg("run completed")
}

// Status returns a copy of the current status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Running = s.gate.Held()
	return st
}

// RunFullUpdate recomputes every ranking, detail and heatmap document.
func (s *Scheduler) RunFullUpdate(ctx context.Context) (err error) {
	r, err := s.begin(JobFullUpdate)
	if err != nil {
		return err
	}
	defer func() { s.finish(r, err) }()
	return s.fullUpdate(ctx, r)
}

// StartFullUpdate takes the gate synchronously and runs the full update in
// the background. ctx must outlive the caller's request.
func (s *Scheduler) StartFullUpdate(ctx context.Context) (string, error) {
	r, err := s.begin(JobFullUpdate)
	if err != nil {
		return "", err
	}
	go func() {
		var err error
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
			s.finish(r, err)
		}()
		err = s.fullUpdate(ctx, r)
	}()
	return r.id, nil
}

// RunHeatmapUpdate recomputes only the heatmap documents.
func (s *Scheduler) RunHeatmapUpdate(ctx context.Context) (err error) {
	r, err := s.begin(JobHeatmap)
	if err != nil {
		return err
	}
	defer func() { s.finish(r, err) }()

	themes := s.themes.Themes()
	universe := s.themes.AllTickers()
	batches, errs := s.fetchAll(ctx, r, universe, s.periods)
	caps := s.data.MarketCaps(ctx, universe)
	lastUpdated := s.lastUpdated(ctx)

	for _, p := range s.periods {
		batch, ok := batches[p]
		if !ok {
			continue
		}
		if err := s.saveHeatmap(r, p, themes, batch, caps, lastUpdated); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsStale reports whether the 1mo ranking document is missing, has an
// unparseable generated_at, or is at least maxAge old.
func (s *Scheduler) IsStale(maxAge time.Duration) bool {
	raw, err := s.store.RankingGeneratedAt(stalenessPeriod)
	if err != nil {
		s.logger.Info().Err(err).Msg("snapshot unavailable, treating as stale")
		return true
	}
	generated, err := ParseGeneratedAt(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("generated_at", raw).Msg("failed to check data freshness")
		return true
	}
	age := s.now().Sub(generated)
	s.logger.Info().Dur("age", age).Dur("max_age", maxAge).Msg("snapshot age")
	return age >= maxAge
}

// UpdateIfStale runs a full update unless the snapshots are fresh.
func (s *Scheduler) UpdateIfStale(ctx context.Context, maxAge time.Duration) error {
	if !s.IsStale(maxAge) {
		s.logger.Info().Msg("precomputed data is fresh, skipping initial update")
		return nil
	}
	s.logger.Info().Msg("precomputed data is stale or missing, running full update")
	return s.RunFullUpdate(ctx)
}

// UpdateSingleTicker refreshes the ticker's cached prices and rewrites the
// detail documents of every theme that contains it.
func (s *Scheduler) UpdateSingleTicker(ctx context.Context, code string) (err error) {
	ticker, err := mdentity.NormalizeTicker(code)
	if err != nil {
		return fmt.Errorf("%q: %w: %w", code, ErrTickerNotFound, err)
	}
	affected := s.themes.ThemesContaining(ticker)
	if len(affected) == 0 {
		return fmt.Errorf("%s: %w", ticker, ErrTickerNotFound)
	}

	r, err := s.begin(JobSingleTicker)
	if err != nil {
		return err
	}
	defer func() { s.finish(r, err) }()

	var members []string
	themeIDs := make([]string, 0, len(affected))
	for _, th := range affected {
		members = append(members, th.Tickers...)
		themeIDs = append(themeIDs, th.ID)
	}
	members = mdentity.Unique(members)
	r.logger.Info().Str("ticker", ticker).Strs("themes", themeIDs).Int("tickers", len(members)).Msg("single ticker update")

	s.data.Invalidate(ticker)
	batches, errs := s.fetchAll(ctx, r, members, s.periods)
	caps := s.data.MarketCaps(ctx, members)
	lastUpdated := s.lastUpdated(ctx)

	for _, p := range s.periods {
		if _, ok := batches[p]; !ok {
			continue
		}
		in := s.inputs(p, batches, caps)
		generatedAt := s.generatedAt()
		for _, th := range affected {
			res := s.computeTheme(r, th, in)
			res.detail.LastUpdated, res.detail.GeneratedAt = lastUpdated, generatedAt
			if err := s.store.SaveDetail(res.detail); err != nil {
				errs = append(errs, fmt.Errorf("period %s theme %s: %w", p, th.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) fullUpdate(ctx context.Context, r *run) error {
	themes := s.themes.Themes()
	universe := s.themes.AllTickers()
	r.logger.Info().Int("themes", len(themes)).Int("tickers", len(universe)).Msg("fetching all periods")

	batches, errs := s.fetchAll(ctx, r, universe, s.periods)
	caps := s.data.MarketCaps(ctx, universe)
	lastUpdated := s.lastUpdated(ctx)

	for _, p := range s.periods {
		batch, ok := batches[p]
		if !ok {
			continue
		}
		in := s.inputs(p, batches, caps)

		results := make([]themeResult, 0, len(themes))
		for _, th := range themes {
			results = append(results, s.computeTheme(r, th, in))
		}
		if err := s.saveThemes(r, p, results, lastUpdated); err != nil {
			errs = append(errs, err)
		}
		if err := s.saveHeatmap(r, p, themes, batch, caps, lastUpdated); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fetchAll fetches each needed period once. A period whose batch was
// cancelled or came back empty is left out of the result and reported.
func (s *Scheduler) fetchAll(ctx context.Context, r *run, tickers []string, periods []mdentity.Period) (map[mdentity.Period]map[string]mdentity.PriceSeries, []error) {
	needed := withReferencePeriods(periods)

	var errs []error
	out := make(map[mdentity.Period]map[string]mdentity.PriceSeries, len(needed))
	for _, p := range needed {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", p, err))
			continue
		}
		start := s.now()
		results := s.data.FetchBatchResults(ctx, tickers, p, s.data.Concurrency())
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", p, err))
			continue
		}
		ok := mdusecase.Successful(results)
		r.logger.Info().Str("period", string(p)).Int("ok", len(ok)).Int("requested", len(tickers)).
			Dur("elapsed", s.now().Sub(start)).Msg("batch fetched")
		if len(ok) == 0 && len(tickers) > 0 {
			errs = append(errs, fmt.Errorf("fetch %s: %w", p, ErrEmptyBatch))
			continue
		}
		out[p] = ok
	}
	return out, errs
}

// withReferencePeriods adds the 1d and 1y batches that every period reads.
func withReferencePeriods(periods []mdentity.Period) []mdentity.Period {
	out := make([]mdentity.Period, 0, len(periods)+2)
	seen := make(map[mdentity.Period]struct{}, len(periods)+2)
	for _, p := range append(append([]mdentity.Period{}, periods...), mdentity.Period1D, mdentity.Period1Y) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (s *Scheduler) inputs(p mdentity.Period, batches map[mdentity.Period]map[string]mdentity.PriceSeries, caps map[string]mdentity.MarketCap) periodInputs {
	in := periodInputs{
		period: p,
		batch:  batches[p],
		yearly: batches[mdentity.Period1Y],
		caps:   caps,
	}
	if p != mdentity.Period1D {
		in.day = batches[mdentity.Period1D]
	}
	return in
}

// computeTheme runs the builder for one theme. A panic becomes a degraded
// record carrying the error instead of aborting the run.
func (s *Scheduler) computeTheme(r *run, th thentity.Theme, in periodInputs) (res themeResult) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("compute theme %s: %v", th.ID, p)
			r.logger.Warn().Err(err).Str("theme", th.ID).Str("period", string(in.period)).Msg("error processing theme")
			res = degradedTheme(th, in.period, err)
		}
	}()
	return s.build(th, in)
}

// saveThemes writes the ranking document and every detail document of a period.
func (s *Scheduler) saveThemes(r *run, p mdentity.Period, results []themeResult, lastUpdated *string) error {
	generatedAt := s.generatedAt()

	summaries := make([]entity.ThemeSummary, 0, len(results))
	for _, res := range results {
		summaries = append(summaries, res.summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].ChangePercent > summaries[j].ChangePercent })

	var errs []error
	ranking := entity.RankingDocument{
		Period:      string(p),
		Themes:      summaries,
		Total:       len(summaries),
		LastUpdated: lastUpdated,
		GeneratedAt: generatedAt,
	}
	if err := s.store.SaveRanking(ranking); err != nil {
		errs = append(errs, fmt.Errorf("period %s ranking: %w", p, err))
	}

	for _, res := range results {
		res.detail.LastUpdated, res.detail.GeneratedAt = lastUpdated, generatedAt
		if err := s.store.SaveDetail(res.detail); err != nil {
			errs = append(errs, fmt.Errorf("period %s theme %s: %w", p, res.detail.ID, err))
		}
	}

	r.logger.Info().Str("period", string(p)).Int("themes", len(results)).Int("errors", len(errs)).Msg("theme documents saved")
	return errors.Join(errs...)
}

func (s *Scheduler) saveHeatmap(r *run, p mdentity.Period, themes []thentity.Theme, batch map[string]mdentity.PriceSeries, caps map[string]mdentity.MarketCap, lastUpdated *string) error {
	doc := entity.HeatmapDocument{
		Period:      string(p),
		Categories:  buildHeatmap(themes, batch, caps),
		LastUpdated: lastUpdated,
		GeneratedAt: s.generatedAt(),
	}
	if err := s.store.SaveHeatmap(doc); err != nil {
		return fmt.Errorf("period %s heatmap: %w", p, err)
	}
	r.logger.Debug().Str("period", string(p)).Msg("heatmap saved")
	return nil
}

func (s *Scheduler) lastUpdated(ctx context.Context) *string {
	if d := s.data.LastTradingDate(ctx); d != "" {
		return &d
	}
	return nil
}

func (s *Scheduler) generatedAt() string {
	return s.now().In(mdentity.Tokyo).Format(entity.GeneratedAtLayout)
}

// naiveLayout matches timestamps written without an offset; they are read
// as Tokyo local time. Fractional seconds are accepted when parsing.
const naiveLayout = "2006-01-02T15:04:05"

// ParseGeneratedAt parses generated_at in RFC 3339 or offset-less ISO form.
func ParseGeneratedAt(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveLayout, raw, mdentity.Tokyo)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse generated_at %q: %w", raw, err)
	}
	return t, nil
}
