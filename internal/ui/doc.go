// Package ui holds the color theme and lipgloss styles shared by the CLI
// output packages.
package ui
