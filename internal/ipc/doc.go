// Package ipc carries the message channel between the shell process and the
// sandboxed UI as JSON-RPC over a Unix domain socket. The same socket serves
// the operator CLI and the cross-instance focus signal.
package ipc
