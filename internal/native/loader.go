package native

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/agbru/tieraccel/internal/errors"
)

// Loader memoizes module resolution for a Runtime. The first Load resolves
// the module; concurrent first callers share that single attempt, and later
// callers reuse the cached result without calling the runtime again. A nil
// module or a load error is cached as "unavailable" until Reload.
//
// Context cancellation of the resolving caller is not cached, so a later
// caller retries.
type Loader struct {
	runtime Runtime
	group   singleflight.Group

	mu       sync.RWMutex
	logger   zerolog.Logger
	resolved bool
	module   Module
	cause    error
}

// NewLoader creates a loader over rt.
func NewLoader(rt Runtime) *Loader {
	if rt == nil {
		rt = Unavailable()
	}
	return &Loader{runtime: rt, logger: zerolog.Nop()}
}

// SetLogger configures the logger for load events.
func (l *Loader) SetLogger(logger zerolog.Logger) {
	l.mu.Lock()
	l.logger = logger
	l.mu.Unlock()
}

func (l *Loader) log() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	logger := l.logger
	return &logger
}

// Runtime returns the underlying runtime.
func (l *Loader) Runtime() Runtime { return l.runtime }

// Load returns the module, resolving it on first use. When native execution
// is unavailable it returns a *apperrors.CapabilityError.
func (l *Loader) Load(ctx context.Context) (Module, error) {
	if m, err, ok := l.cached(); ok {
		return m, err
	}

	v, err, _ := l.group.Do("load", func() (any, error) {
		if m, err, ok := l.cached(); ok {
			return m, err
		}
		m, err := l.resolve(ctx)
		if err != nil && apperrors.IsContextError(err) {
			return nil, err
		}

		l.mu.Lock()
		l.resolved = true
		l.module = m
		l.cause = err
		l.mu.Unlock()

		if m == nil {
			l.log().Info().Err(err).Msg("native module unavailable, using fallback implementations")
			return nil, unavailableError(err)
		}
		l.log().Debug().Str("module", m.Name()).Msg("native module loaded")
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Module), nil
}

// resolve calls the runtime, converting a panic into an error.
func (l *Loader) resolve(ctx context.Context) (m Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("native: module load panicked: %v", r)
		}
	}()
	return l.runtime.LoadModule(ctx)
}

func (l *Loader) cached() (Module, error, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.resolved {
		return nil, nil, false
	}
	if l.module == nil {
		return nil, unavailableError(l.cause), true
	}
	return l.module, nil, true
}

func unavailableError(cause error) error {
	if cause == nil {
		return &apperrors.CapabilityError{Reason: "runtime provided no module", Cause: ErrUnavailable}
	}
	return &apperrors.CapabilityError{Reason: "module load failed", Cause: cause}
}

// Resolved reports whether a load attempt has completed.
func (l *Loader) Resolved() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.resolved
}

// Unavailable reports whether resolution completed without a module. It is
// false before the first Load.
func (l *Loader) Unavailable() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.resolved && l.module == nil
}

// IsFeatureSupported probes the runtime. A panicking probe reports false.
func (l *Loader) IsFeatureSupported(f Feature) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return l.runtime.IsFeatureSupported(f)
}

// Reload closes any loaded module, forgets the cached resolution, and
// resolves again.
func (l *Loader) Reload(ctx context.Context) (Module, error) {
	l.mu.Lock()
	prev := l.module
	l.resolved = false
	l.module = nil
	l.cause = nil
	l.mu.Unlock()

	if prev != nil {
		if err := prev.Close(ctx); err != nil {
			l.log().Warn().Err(err).Str("module", prev.Name()).Msg("closing native module")
		}
	}
	return l.Load(ctx)
}

// Close releases the loaded module, if any. The loader keeps reporting the
// module as resolved; use Reload to load it again.
func (l *Loader) Close(ctx context.Context) error {
	l.mu.Lock()
	prev := l.module
	l.module = nil
	l.mu.Unlock()
	if prev == nil {
		return nil
	}
	return prev.Close(ctx)
}
