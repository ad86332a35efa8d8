// Package extensions runs the ephemeral loopback server that exposes
// installed extension bundles to the UI process.
//
// Startup has no timeout: a hung bind keeps every consumer waiting on the
// shared address. Callers that need a bound wait pass a context deadline to
// Await.
package extensions
