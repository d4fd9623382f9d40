package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// SpawnArgs parameterizes the detached summarizer process.
type SpawnArgs struct {
	SessionTextPath string
	ProjectName     string
	ProjectSlug     string
	RepoName        string
	LogPath         string
}

// spawnSummarizer launches this binary's summarize command as a detached
// process in its own session, so it survives the foreground exiting. Only
// launch failure is reported; no result is awaited.
func spawnSummarizer(args SpawnArgs) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable: %w", err)
	}

	cmd := exec.Command(self, "summarize",
		"--session-text", args.SessionTextPath,
		"--project", args.ProjectName,
		"--slug", args.ProjectSlug,
		"--repo", args.RepoName,
		"--log-file", args.LogPath,
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting summarizer: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("releasing summarizer process: %w", err)
	}
	return nil
}
