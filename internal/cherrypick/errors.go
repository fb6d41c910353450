package cherrypick

import "errors"

// User errors. They describe a repository state the caller must fix and are
// reported without a stack of command output.
var (
	ErrDirty           = errors.New("the repository has uncommitted changes")
	ErrURLChange       = errors.New("cherry-picking commits that change submodule urls is not supported")
	ErrNoOperation     = errors.New("no cherry-pick in progress")
	ErrNothingToCommit = errors.New("nothing to commit")
	ErrUnresolved      = errors.New("conflicts must be resolved before continuing")
	ErrInProgress      = errors.New("an operation is already in progress; continue or abort it first")
	ErrUnbornHead      = errors.New("cannot cherry-pick onto an unborn branch")
	ErrBusy            = errors.New("another git-meta operation is running in this repository")
)

var userErrors = []error{
	ErrDirty,
	ErrURLChange,
	ErrNoOperation,
	ErrNothingToCommit,
	ErrUnresolved,
	ErrInProgress,
	ErrUnbornHead,
	ErrBusy,
}

// IsUserError reports whether err wraps one of the user errors.
func IsUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
