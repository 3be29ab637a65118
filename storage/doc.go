// Package storage holds the flat files that record onboarding progress.
//
// MarkerFile is a sentinel whose existence records that a one-time step is
// done. The membrane proof marker also carries the proof itself. Writes go
// through a temporary file and a rename, so a marker is either absent or
// complete.
//
// KeyFile is the agent key written by the local holochain conductor. It is
// only ever read, and a missing file means there is nothing to compare
// against.
package storage
