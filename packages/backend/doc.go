// Package backend abstracts the concurrency scheduler under the HTTP
// engine: sleeping, establishing transport streams and running work in
// the background.
//
// Two interchangeable implementations exist. NetBackend starts free
// goroutines; GroupBackend scopes every background task to one errgroup
// joined at Wait. The choice affects only how suspension and task
// lifetime are managed, never which responses or errors a request
// produces, and both may be used in the same process without sharing
// state.
package backend
