// Package cherrypick applies commits of a meta-repo across its sub-repos:
// it classifies how a commit's submodule changes relate to HEAD, applies
// pointer updates directly, replays commit ranges inside open sub-repos and
// creates the meta commit once every sub-repo is resolved. Interrupted
// operations are persisted with the sequencer so they can be continued or
// aborted.
package cherrypick
