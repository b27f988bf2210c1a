// Package service implements business logic for the forceview server.
//
// GraphService loads the author/output snapshot from the database or a
// snapshot file, validates it and handles import/export through the codec
// package.
//
// ViewManager owns the running views. Each view is a view.Controller driven
// by its own view.Loop goroutine; gestures from the HTTP layer are submitted
// to the loop and frames come back through the EventBus.
//
// All services publish events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE).
package service
