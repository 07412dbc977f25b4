package app

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"slices"
)

// Version is the application version, set at build time with
// -ldflags "-X github.com/agbru/tieraccel/internal/app.Version=v1.2.3".
var Version = "dev"

// HasVersionFlag reports whether args ask for the version. It is checked
// before flag parsing so it works alongside otherwise invalid flags.
func HasVersionFlag(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		return arg == "--version" || arg == "-version" || arg == "-V"
	})
}

// PrintVersion writes the version, the VCS revision when known, and the
// toolchain and platform.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "tieraccel %s", Version)
	if rev := vcsRevision(); rev != "" {
		fmt.Fprintf(out, " (%s)", rev)
	}
	fmt.Fprintf(out, " %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
