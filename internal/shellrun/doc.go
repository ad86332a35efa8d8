// Package shellrun wires configuration, logging, storage, the extensions
// server, and the coordinator into a running shell process.
package shellrun
