// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package supervisor runs the long-lived serve-mode services under suture v4.

# Overview

	RootSupervisor ("spotrank")
	├── JobsSupervisor ("jobs-layer")
	│   └── SchedulerService (if scheduler.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the scheduled pipeline restarts only the jobs layer. The API keeps
serving whatever generation was last written, which is always complete
because snapshot writes are atomic.

The one-shot commands (check, collect, merge, build, run) do not use the tree.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	if cfg.Scheduler.Enabled {
	    tree.AddJobService(services.NewSchedulerService(p, cfg.Scheduler.Interval))
	}
	return tree.Serve(ctx)

# Failure Handling

Each layer counts failures with exponential decay (FailureDecay seconds).
Past FailureThreshold the layer waits FailureBackoff before restarting.
Supervisor events are logged through sutureslog.

Services return nil only when they stopped cleanly and must not be
restarted, an error to be restarted, and ctx.Err() on shutdown.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()

lists services that ignored cancellation past ShutdownTimeout.
*/
package supervisor
