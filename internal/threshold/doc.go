// Package threshold learns, per operation, the input size above which the
// native path is worth taking.
//
// Each operation key owns a Manager: a bounded SampleStore of paired
// native/fallback timings plus a single learned value, the current
// threshold. Every recorded sample nudges the threshold toward the sample's
// input size by a learning-rate fraction of the gap, lowering it when native
// paid off below the threshold and raising it when native failed to pay off
// at or above it. Updates are O(1) and memory per key is capped.
//
// The Registry shards managers by key hash and creates them lazily.
package threshold
