// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package services adapts serve-mode components to suture's Serve pattern.

HTTPServerService wraps *http.Server: ListenAndServe runs in a goroutine and
context cancellation triggers Shutdown with a bounded timeout.

SchedulerService runs the pipeline on a fixed interval. Each tick asks the
pipeline whether Spotify has newer plays and runs collect, merge and build
only when it does. A failed run is logged and retried on the next tick; it
never crashes the service.

Both implement fmt.Stringer so supervisor events name them.
*/
package services
