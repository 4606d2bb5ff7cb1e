package pipeline

import (
	"github.com/go-git/go-git/v5"
)

// revisionHashLen is how much of the HEAD hash ends up in the revision stamp.
const revisionHashLen = 8

// detectRevision resolves the short HEAD hash of the work tree containing
// root. The revision is a nice-to-have stamp: any failure (not a repository,
// detached state, empty repository) yields the empty string and the build
// carries on without one.
func detectRevision(root string) string {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()[:revisionHashLen]
}
