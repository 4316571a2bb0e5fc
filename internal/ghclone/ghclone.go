// Package ghclone wraps go-git to populate a workspace directory from
// a GitHub repository, the external cloner collaborator of spec.md §1
// ("Out of scope (external collaborators)"). It is a thin shim: the
// repository layout underneath the clone is what the Shallow Scanner
// then walks.
package ghclone

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Options configures a clone.
type Options struct {
	URL    string
	Branch string // optional; defaults to the remote's default branch
	Depth  int    // optional; 0 means full history
}

// Clone fetches Options.URL into dest, checking out Branch if given.
// dest must not already exist (go-git refuses to clone into a
// non-empty directory).
func Clone(dest string, opts Options) error {
	cloneOpts := &gogit.CloneOptions{
		URL:   opts.URL,
		Depth: opts.Depth,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	if _, err := gogit.PlainClone(dest, false, cloneOpts); err != nil {
		return fmt.Errorf("cloning %s into %s: %w", opts.URL, dest, err)
	}
	return nil
}

// Update pulls the latest changes for an already-cloned workspace at
// dest, used by the CLI's clone subcommand when the destination
// directory already exists (re-running clone is idempotent).
func Update(dest string) error {
	repo, err := gogit.PlainOpen(dest)
	if err != nil {
		return fmt.Errorf("opening repository at %s: %w", dest, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree at %s: %w", dest, err)
	}

	if err := wt.Pull(&gogit.PullOptions{}); err != nil && err != gogit.NoErrAlreadyUpToDate {
		return fmt.Errorf("pulling %s: %w", dest, err)
	}
	return nil
}
