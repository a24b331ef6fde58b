// Package session hosts running Block Rush games in memory.
//
// A Manager maps short IDs to sessions. Each session wraps one engine in a
// loop.Runner, so the countdown and the block scheduler keep running between
// requests. Create starts the runner; Delete, CleanupExpiredSessions and
// StopAll stop it. NewManagerWithClock drives the loops from another clock,
// such as loop.NewManualClock in tests.
//
// IDs are four lowercase hex characters drawn from crypto/rand. Lookups ignore
// case, which lets clients echo an ID back in any case.
//
// The manager lock guards only the session map. Game state belongs to each
// session's runner, and callers reach it through the runner's methods.
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	state := sess.Runner.Snapshot()
//
// Nothing is persisted; sessions are lost when the process exits.
package session
