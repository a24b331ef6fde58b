// Package loop hosts one game engine on real goroutines.
//
// A Runner owns the three cadences of a live game: the countdown task (one
// time unit), the block scheduler task (the level's block interval) and the
// render frame hook that clients call at their own rate. Every engine call is
// made under a single mutex, so no tick ever observes a grid mid-mutation.
//
// The block task is re-armed inside the same critical section that changed
// the level. A generation counter discards callbacks of a cancelled task that
// were already waiting on the lock.
//
// Listeners run outside that mutex but one at a time, in the order the
// mutations happened. A listener must not call back into its runner.
//
// Time comes from a Clock. RealClock uses tickers; ManualClock advances only
// when told to and is meant for tests.
package loop
