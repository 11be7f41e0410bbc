package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultGitRange is diffed by update-git when no range is given.
const DefaultGitRange = "HEAD~1..HEAD"

// GitChanges lists the files touched by a diff range as absolute paths.
type GitChanges struct {
	Existing []string // regular files still on disk
	Deleted  []string // paths no longer on disk
}

// GitChangedFiles runs `git diff --name-status --no-renames -z` over
// rangeSpec in root. Renames are reported as a deletion of the old path
// plus an addition of the new one. A failing git command is not an error:
// it is logged and yields no changes.
func GitChangedFiles(ctx context.Context, root, rangeSpec string, logger *slog.Logger) GitChanges {
	if logger == nil {
		logger = slog.Default()
	}
	if rangeSpec == "" {
		rangeSpec = DefaultGitRange
	}

	cmd := exec.CommandContext(ctx, "git", "-C", root, "diff",
		"--name-status", "--no-renames", "--relative", "-z", rangeSpec)
	out, err := cmd.Output()
	if err != nil {
		logger.Warn("git diff failed; no changes will be indexed",
			"range", rangeSpec, "error", gitError(err))
		return GitChanges{}
	}

	var changes GitChanges
	for _, e := range parseNameStatus(out) {
		abs := filepath.Join(root, filepath.FromSlash(e.path))
		// The working tree decides: a path deleted in the range but
		// present on disk again is reindexed, not retired.
		info, err := os.Stat(abs)
		switch {
		case err == nil && info.Mode().IsRegular():
			changes.Existing = append(changes.Existing, abs)
		case os.IsNotExist(err):
			changes.Deleted = append(changes.Deleted, abs)
		default:
			logger.Debug("git change skipped", "path", e.path, "status", e.status)
		}
	}
	return changes
}

type nameStatus struct {
	status string
	path   string
}

// parseNameStatus splits `--name-status -z` output into status/path
// pairs. Without rename detection every record has exactly one path.
func parseNameStatus(out []byte) []nameStatus {
	fields := strings.Split(strings.TrimRight(string(out), "\x00"), "\x00")
	var entries []nameStatus
	for i := 0; i+1 < len(fields); i += 2 {
		if fields[i+1] == "" {
			continue
		}
		entries = append(entries, nameStatus{status: fields[i], path: fields[i+1]})
	}
	return entries
}

func gitError(err error) error {
	if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}
