package history

import (
	"log/slog"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/pubtime/internal/logfields"
)

// Revision returns the HEAD commit of the git repository that contains dir,
// abbreviated to 12 characters. It returns "" when dir is not inside a
// repository or HEAD has no commit yet.
func Revision(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("Corpus is not in a git repository", logfields.Path(dir), logfields.Error(err))
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		slog.Debug("Failed to resolve HEAD", logfields.Path(dir), logfields.Error(err))
		return ""
	}
	return head.Hash().String()[:12]
}
