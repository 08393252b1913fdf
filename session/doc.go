// Package session provides persistence for agent sessions and run transcripts.
//
// Stores:
//   - [MemoryStore] keeps sessions in memory.
//   - [FileStore] persists each session as a JSON file.
//   - [SQLiteStore] keeps sessions and transcript events in one SQLite database.
//
// All stores implement [agent.FullSessionStore]. [JSONLRecorder] and
// [SQLiteStore] also implement [agent.Recorder] for transcripts.
package session
