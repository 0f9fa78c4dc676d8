package dbt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
)

// Runner invokes the external dbt binary against a project and a generated
// profile. The policy is best-effort: a failing subcommand is recorded and
// the sequence continues, so one bad model run still surfaces everything
// downstream of it.
type Runner struct {
	Bin         string
	ProjectDir  string
	ProfilesDir string

	log *zap.SugaredLogger
}

// CommandResult is the outcome of a single subcommand.
type CommandResult struct {
	Command  string
	Duration time.Duration
	Err      error
}

// Results is an ordered list of per-command outcomes.
type Results []CommandResult

// Failed returns the number of commands that ended in error.
func (rs Results) Failed() int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func NewRunner(bin, projectDir, profilesDir string, log *zap.SugaredLogger) *Runner {
	if bin == "" {
		bin = "dbt"
	}
	return &Runner{
		Bin:         bin,
		ProjectDir:  projectDir,
		ProfilesDir: profilesDir,
		log:         log,
	}
}

// Invoke runs each subcommand in order. Subcommands are full dbt command
// strings ("run --select staging") split shell-style. Cancellation of ctx
// stops the sequence between commands; anything else, including a non-zero
// exit, does not.
func (r *Runner) Invoke(ctx context.Context, commands []string) Results {
	results := make(Results, 0, len(commands))
	for _, command := range commands {
		if ctx.Err() != nil {
			break
		}

		r.log.Infow("executing", "command", "dbt "+command)
		start := time.Now()
		err := r.run(ctx, command)
		res := CommandResult{Command: command, Duration: time.Since(start), Err: err}
		if err != nil {
			r.log.Errorw("command failed", "command", "dbt "+command, "error", err)
		} else {
			r.log.Infow("completed", "command", "dbt "+command, "duration", res.Duration)
		}
		results = append(results, res)
	}
	return results
}

func (r *Runner) run(ctx context.Context, command string) error {
	args, err := shellquote.Split(command)
	if err != nil {
		return fmt.Errorf("parse command %q: %w", command, err)
	}
	args = append(args, "--project-dir", r.ProjectDir, "--profiles-dir", r.ProfilesDir)

	cmd := exec.CommandContext(ctx, r.Bin, args...)
	cmd.Dir = r.ProjectDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("dbt %s: %w", command, err)
	}
	return nil
}
