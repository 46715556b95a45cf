// Package store keeps a transcript of agent exchanges in SQLite.
//
// The ledger is optional (database.path empty disables it). When enabled the
// agent records every answered message against the live thread ID; clearing
// history starts a new thread row rather than touching the old one.
//
//	threads    one row per conversation context (uuid, created/updated)
//	exchanges  one row per answered message, ordered by insertion
//
// SQLiteStore satisfies agent.Recorder and backs `foundry-agent history`.
package store
