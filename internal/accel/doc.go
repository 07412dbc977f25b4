// Package accel is the adaptive tier-selection and safe-dispatch core.
//
// An Accelerator is built from a Strategy: a data value holding an
// operation's tier predicates together with its native and fallback
// implementations. For each call the dispatcher picks a Tier, runs the
// selected implementation inside a failure boundary, and occasionally times
// both implementations to feed the adaptive threshold model.
//
// The central guarantee is that native failure is never visible to the
// caller. Any error or panic from the native path, and any unavailable
// module or capability, results in exactly one fallback attempt whose
// result is returned. Only the fallback's own errors, such as invalid
// input, reach the caller.
//
// All learned state lives in a RuntimeContext passed to New; dispatchers
// themselves are stateless.
package accel
