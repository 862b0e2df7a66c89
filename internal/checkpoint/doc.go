// Package checkpoint drives a three-phase checkpoint protocol on top of
// [epoch.Manager]'s marker facility and deferred-action drain list.
//
// A [Coordinator] owns one epoch handle of its own and cycles through
// begin, flush, and commit phases each time [Coordinator.RunCheckpoint]
// is called. "begin" publishes a new generation number as the coordinator's
// own marker value. "flush" polls the same marker index until every
// currently-protected session (including the coordinator) has advanced
// past it — sessions do this cooperatively in [session.Session.Do] by
// comparing [Coordinator.PendingGeneration] against their own last-seen
// value. "commit" uses [epoch.Manager.BumpCurrentEpoch] to defer the
// actual manifest write until it is safe to do so, i.e. until no session
// can still observe pre-checkpoint state.
package checkpoint
