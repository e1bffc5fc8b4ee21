// Package health provides composable probes for the liveness and
// readiness endpoints.
//
// Probes combine with [All] (AND) and [Any] (OR); [Fixed] is static and
// [CheckFunc] adapts a function. [Named] prefixes a failure with the
// component that produced it.
//
// [ShutdownGate] fails readiness as soon as shutdown begins so load
// balancers stop routing before in-flight requests drain.
package health
