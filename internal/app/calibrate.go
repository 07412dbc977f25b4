package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agbru/tieraccel/internal/accel"
	"github.com/agbru/tieraccel/internal/calibration"
	"github.com/agbru/tieraccel/internal/cli"
	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/orchestration"
	"github.com/agbru/tieraccel/internal/ui"
)

// runCalibration times both paths of every selected operation over sizes
// spread between the threshold bounds, prints the thresholds they settle
// on, and writes them to the profile when one is configured.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()

	sampling := accel.AlwaysSample()
	sampling.Verify = a.Config.Verify
	rc, err := a.newRuntimeContext(sampling)
	if err != nil {
		return a.setupError(err)
	}
	defer a.closeRuntime(rc)

	runners, err := a.selectRunners(rc)
	if err != nil {
		return a.setupError(err)
	}

	sizes := calibration.GenerateWarmupSizes(a.Config.MinSize, a.Config.MaxSize)
	fmt.Fprintf(out, "--- Calibration ---\n")
	fmt.Fprintf(out, "Warming up %s%d%s operations over sizes %s%v%s (%d rounds each).\n",
		ui.ColorGreen(), len(runners), ui.ColorReset(),
		ui.ColorMagenta(), sizes, ui.ColorReset(), calibration.DefaultRounds)

	start := time.Now()
	results := calibration.Warmup(ctx, rc, runners, sizes, orchestration.RandomInputs(inputSeed), calibration.Options{})
	elapsed := time.Since(start)
	calibration.PrintResults(out, results)

	if err := ctx.Err(); err != nil {
		return apperrors.HandleRunError(err, elapsed, out, cli.CLIColorProvider{})
	}

	exitCode := apperrors.ExitSuccess
	for _, r := range results {
		if r.Err != nil {
			exitCode = apperrors.ExitErrorGeneric
		}
	}

	if a.Config.ProfilePath != "" {
		p := calibration.NewProfileFromResults(results, elapsed)
		if err := p.SaveProfile(a.Config.ProfilePath); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving calibration profile: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		calibration.PrintProfileSaved(out, a.Config.ProfilePath, p)
	}
	return exitCode
}
