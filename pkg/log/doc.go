/*
Package log provides structured logging for hashdb using zerolog.

This is the operational logging surface: debug traces, usage-error
diagnostics (spec §7), and store lifecycle events. It is distinct from
pkg/auditlog, which owns the durable per-session log.xml record spec §6
requires — that file is a structured audit trail meant to be replayed
and diffed, not an operational log stream, so it gets its own package
and its own (XML) encoding.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	hashdataLog := log.WithComponent("hashdata")
	hashdataLog.Warn().Str("block_hash", h.Hex()).Msg("block_label truncated")

	sessionLog := log.WithSession(sessionID).With().Str("hashdb_dir", dir).Logger()
	sessionLog.Info().Msg("import session opened")

No package in this module calls WithComponent: the stores log through
the WithHashdbDir logger pkg/hashdb passes to store.Open, which adds a
store field, and the remaining call sites use Logger directly.
*/
package log
