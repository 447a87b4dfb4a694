// Package port checks whether a sub-app's development server is up.
//
// The apps command uses it to show, next to each sub-app, whether the dev
// server the shell page points at during development is currently
// accepting connections.
package port
