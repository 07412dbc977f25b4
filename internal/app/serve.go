package app

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/logging"
	"github.com/agbru/tieraccel/internal/orchestration"
	"github.com/agbru/tieraccel/internal/server"
)

// runServer serves diagnostics until ctx is canceled. The configured
// workloads run once in the background so the endpoints have dispatch state
// to report; their failure does not stop the server.
func (a *Application) runServer(ctx context.Context, out io.Writer) int {
	rc, err := a.newRuntimeContext(a.Config.SamplingPolicy())
	if err != nil {
		return a.setupError(err)
	}
	defer a.closeRuntime(rc)
	a.loadProfile(rc, out)

	runners, err := a.selectRunners(rc)
	if err != nil {
		return a.setupError(err)
	}

	logger := logging.NewZerologAdapter(a.logger().With().Str("component", "server").Logger())
	srv := server.NewServer(rc, runners, a.Config.Listen, server.WithLogger(logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		runCtx, cancel := context.WithTimeout(gctx, a.Config.Timeout)
		defer cancel()
		workloads := orchestration.BuildWorkloads(runners, a.Config.Sizes, a.Config.Iterations)
		results := orchestration.ExecuteWorkloads(runCtx, workloads, orchestration.RandomInputs(inputSeed),
			orchestration.NullProgressReporter{}, io.Discard)
		for _, r := range results {
			if r.Err != nil {
				logger.Warn("initial workload failed", logging.String("operation", r.Name), logging.Err(r.Err))
				continue
			}
			logger.Info("initial workload completed",
				logging.String("operation", r.Name),
				logging.Int("mismatches", r.Mismatches()),
				logging.String("duration", r.Duration.String()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
