package accel

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/agbru/tieraccel/internal/analyzer"
	"github.com/agbru/tieraccel/internal/metrics"
	"github.com/agbru/tieraccel/internal/native"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/threshold"
)

const tracerName = "github.com/agbru/tieraccel/internal/accel"

// RuntimeContext carries everything a dispatcher needs besides its
// Strategy: the native module loader, the learned per-operation state, the
// analyzer, and the sampling policy. Contexts are independent of each other,
// so tests can build a fresh one per case.
type RuntimeContext struct {
	// ID distinguishes contexts in logs.
	ID string

	Loader     *native.Loader
	Thresholds *threshold.Registry
	Counters   *metrics.Registry
	Analyzer   *analyzer.Analyzer
	Sampling   SamplingPolicy

	logger  zerolog.Logger
	tracer  trace.Tracer
	sampler *sampler
	warn    *warnLimiter

	nativeFailures atomic.Int64
	divergences    atomic.Int64
}

type contextOptions struct {
	logger       zerolog.Logger
	sampling     SamplingPolicy
	thresholdCfg threshold.Config
	overrides    map[operation.Key]threshold.Config
	analyzer     *analyzer.Analyzer
	rng          *rand.Rand
	tracer       trace.Tracer
	warnEvery    time.Duration
	warnBurst    int
}

// Option configures a RuntimeContext.
type Option func(*contextOptions)

// WithLogger sets the logger used for dispatch warnings and debug events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *contextOptions) { o.logger = l }
}

// WithSampling sets the sampling policy.
func WithSampling(p SamplingPolicy) Option {
	return func(o *contextOptions) { o.sampling = p }
}

// WithThresholdConfig sets the default threshold configuration.
func WithThresholdConfig(cfg threshold.Config) Option {
	return func(o *contextOptions) { o.thresholdCfg = cfg }
}

// WithThresholdOverride sets the threshold configuration for one operation.
func WithThresholdOverride(key operation.Key, cfg threshold.Config) Option {
	return func(o *contextOptions) { o.overrides[key] = cfg }
}

// WithAnalyzer sets the analyzer consulted by strategies that defer to it.
func WithAnalyzer(a *analyzer.Analyzer) Option {
	return func(o *contextOptions) { o.analyzer = a }
}

// WithRandom sets the random source for sampling decisions.
func WithRandom(r *rand.Rand) Option {
	return func(o *contextOptions) { o.rng = r }
}

// WithTracer sets the tracer used for Execute spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *contextOptions) { o.tracer = t }
}

// WithWarningLimit caps native-failure warnings to burst messages, then
// one per interval. Suppressed warnings are counted and reported with the
// next emitted one.
func WithWarningLimit(interval time.Duration, burst int) Option {
	return func(o *contextOptions) {
		o.warnEvery = interval
		o.warnBurst = burst
	}
}

// NewRuntimeContext builds a context over rt.
func NewRuntimeContext(rt native.Runtime, opts ...Option) (*RuntimeContext, error) {
	o := contextOptions{
		logger:       zerolog.Nop(),
		sampling:     DefaultSamplingPolicy(),
		thresholdCfg: threshold.DefaultConfig(),
		overrides:    make(map[operation.Key]threshold.Config),
		warnEvery:    time.Second,
		warnBurst:    5,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.analyzer == nil {
		o.analyzer = analyzer.New()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	thresholds, err := threshold.NewRegistry(o.thresholdCfg)
	if err != nil {
		return nil, err
	}
	for key, cfg := range o.overrides {
		if err := thresholds.Configure(key, cfg); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	logger := o.logger.With().Str("runtime_id", id).Logger()
	thresholds.SetLogger(logger)
	loader := native.NewLoader(rt)
	loader.SetLogger(logger)

	return &RuntimeContext{
		ID:         id,
		Loader:     loader,
		Thresholds: thresholds,
		Counters:   metrics.NewRegistry(),
		Analyzer:   o.analyzer,
		Sampling:   o.sampling,
		logger:     logger,
		tracer:     o.tracer,
		sampler:    newSampler(o.sampling, o.rng),
		warn:       newWarnLimiter(o.warnEvery, o.warnBurst),
	}, nil
}

// Logger returns the context's logger.
func (rc *RuntimeContext) Logger() zerolog.Logger { return rc.logger }

// ShouldSample decides whether the next call for key times both paths.
func (rc *RuntimeContext) ShouldSample(key operation.Key) bool {
	return rc.sampler.shouldSample(key)
}

// NativeFailures returns how many native calls failed and were retried via
// the fallback path.
func (rc *RuntimeContext) NativeFailures() int64 { return rc.nativeFailures.Load() }

// Divergences returns how many verified samples produced different native
// and fallback outputs.
func (rc *RuntimeContext) Divergences() int64 { return rc.divergences.Load() }

// Reset clears all learned state: thresholds, samples, counters, and
// warm-up progress. The loaded module is kept.
func (rc *RuntimeContext) Reset() {
	rc.Thresholds.Reset()
	rc.Counters.Reset()
	rc.sampler.reset()
	rc.nativeFailures.Store(0)
	rc.divergences.Store(0)
}

// Close releases the native module.
func (rc *RuntimeContext) Close(ctx context.Context) error {
	return rc.Loader.Close(ctx)
}

func (rc *RuntimeContext) warnNativeFailure(key operation.Key, tier Tier, err error) {
	rc.nativeFailures.Add(1)
	ok, suppressed := rc.warn.allow()
	if !ok {
		return
	}
	ev := rc.logger.Warn().Err(err).Str("operation", key.String()).Str("tier", tier.String())
	if suppressed > 0 {
		ev = ev.Int64("suppressed", suppressed)
	}
	ev.Msg("native execution failed, using fallback")
}

// warnLimiter throttles repeated warnings so a permanently failing native
// path cannot flood the log.
type warnLimiter struct {
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

func newWarnLimiter(every time.Duration, burst int) *warnLimiter {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	if burst < 1 {
		burst = 1
	}
	return &warnLimiter{limiter: rate.NewLimiter(limit, burst)}
}

func (w *warnLimiter) allow() (bool, int64) {
	if !w.limiter.Allow() {
		w.suppressed.Add(1)
		return false, 0
	}
	return true, w.suppressed.Swap(0)
}

// ─────────────────────────────────────────────────────────────────────────────
// Process default
// ─────────────────────────────────────────────────────────────────────────────

var (
	defaultMu  sync.Mutex
	defaultCtx *RuntimeContext
)

// Default returns the process-wide context over native.DefaultRuntime,
// creating it on first use.
func Default() *RuntimeContext {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtx == nil {
		// The default configuration is statically valid.
		defaultCtx, _ = NewRuntimeContext(native.DefaultRuntime())
	}
	return defaultCtx
}

// ResetDefault discards the process-wide context. The next Default call
// builds a fresh one.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtx != nil {
		_ = defaultCtx.Close(context.Background())
	}
	defaultCtx = nil
}
