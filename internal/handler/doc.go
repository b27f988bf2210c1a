// Package handler implements the HTTP layer of the forceview server.
//
// GraphHandler serves the stored graph: the snapshot, node lookups, stats,
// and import/export in JSON or YAML.
//
// ViewHandler serves running views: their scene as JSON or SVG, node
// states, and the pointer gestures (drag, hover, double-click) that the
// browser forwards. Gestures run on the view's own loop, so responses
// reflect the state after the gesture was applied.
//
// Errors are returned as JSON {error, details} with a status derived from
// the sentinel errors of the domain, view and service packages.
//
// Middleware provides panic recovery, CORS, request logging, request
// metrics and body size limits.
package handler
