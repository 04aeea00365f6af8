// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Spotrank keeps a deduplicated Spotify listening history and publishes
ranked songs, albums and artists built from it.

Usage:

	spotrank <command> [flags]

Commands:

	check    exit 0 when Spotify has plays newer than the stored history
	         (or when that cannot be determined), 1 when it does not
	collect  fetch recently played tracks into a recently-played generation
	merge    fold the latest recently-played generation into the history
	build    rebuild and enrich every ranking from the latest history
	run      collect, merge and build
	serve    serve the dashboard API, optionally running the pipeline on a schedule

Every command accepts:

	-config path     YAML config file (default: spotrank.yaml, config.yaml, ...)
	-log-level level overrides logging.level

Exit codes: 0 on success or when there was nothing to do, 2 on a malformed
snapshot or any other fatal error. A cron-style deployment chains them:

	spotrank check && spotrank run

# Configuration

Settings come from built-in defaults, an optional YAML file, a .env file and
environment variables, highest last. Spotify credentials are optional; without
them rankings are built from stored plays only and are not enriched:

	SPOTIFY_CLIENT_ID=...
	SPOTIFY_CLIENT_SECRET=...
	SPOTIFY_REFRESH_TOKEN=...
	DATA_DIR=/var/lib/spotrank
	ENABLE_SCHEDULER=true

# Signal Handling

SIGINT and SIGTERM cancel the running command. A cancelled build writes
nothing; serve mode drains in-flight requests before exiting.
*/
package main
