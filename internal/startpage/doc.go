// Package startpage builds the generated HTML document that binds the UI
// process to the local extensions server and static resources.
package startpage
