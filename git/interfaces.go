package git

import "context"

// BranchProvider reports the checked-out branch of a working directory.
type BranchProvider interface {
	CurrentBranch(ctx context.Context, dir string) (string, error)
}
