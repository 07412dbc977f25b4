// Package format renders durations, progress bars and numbers for terminal
// output.
package format
