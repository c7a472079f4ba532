package executor

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/pacsea-project/pacsea/internal/plog"
)

// stuckTimeout bounds a silent step: no output for this long means it's
// presumed hung (usually prompting for something a noninteractive pipe
// can't answer) and killed.
const stuckTimeout = 10 * time.Minute

// Run executes req's plan in order, streaming each line of stdout/stderr to
// out as it arrives. It stops at the first failing step; callers read
// out until it closes to know the transaction finished.
func Run(ctx context.Context, req Request, officialNames, aurNames []string, out chan<- Output) {
	defer close(out)

	steps := BuildPlan(req, officialNames, aurNames)
	for _, s := range steps {
		out <- Output{Kind: OutLine, Text: "==> " + s.Description}
		if err := runStep(ctx, s, req.DryRun, out); err != nil {
			out <- Output{Kind: OutExit, ExitCode: 1, Text: err.Error()}
			return
		}
	}

	if req.Kind == KindInstall && len(aurNames) > 0 {
		for _, pkg := range aurNames {
			out <- Output{Kind: OutLine, Text: "==> Building AUR package: " + pkg}
			if err := RunAURInstall(ctx, pkg, req.Password, req.DryRun, out); err != nil {
				out <- Output{Kind: OutExit, ExitCode: 1, Text: err.Error()}
				return
			}
		}
	}

	out <- Output{Kind: OutExit, ExitCode: 0}
}

func runStep(ctx context.Context, s step, dryRun bool, out chan<- Output) error {
	line := s.ShellLine
	if dryRun {
		out <- Output{Kind: OutLine, Text: "DRY RUN: " + line}
		return nil
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", line)
	return runWithStreaming(cmd, out)
}

// runWithStreaming pipes stdout/stderr line-by-line to out and enforces
// stuckTimeout.
func runWithStreaming(cmd *exec.Cmd, out chan<- Output) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	lineChan := make(chan string, 100)
	done := make(chan error, 1)

	go scanInto(stdout, lineChan)
	go scanInto(stderr, lineChan)
	go func() {
		done <- cmd.Wait()
		close(lineChan)
	}()

	timeout := time.NewTimer(stuckTimeout)
	defer timeout.Stop()

	for {
		select {
		case err := <-done:
			for line := range lineChan {
				out <- Output{Kind: OutLine, Text: line}
			}
			return err
		case line, ok := <-lineChan:
			if !ok {
				continue
			}
			out <- Output{Kind: OutLine, Text: line}
			timeout.Reset(stuckTimeout)
		case <-timeout.C:
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
			plog.Warnf("executor: step killed after %s with no output", stuckTimeout)
			return context.DeadlineExceeded
		}
	}
}

// RunShellStep executes a single privileged shell line outside a full plan
// (service restarts after a transaction), streaming into out.
func RunShellStep(ctx context.Context, command, password string, out chan<- Output) error {
	cmd := exec.CommandContext(ctx, "bash", "-c", sudoPipe(password, command))
	return runWithStreaming(cmd, out)
}

// PlanShellLines exposes a request's assembled shell lines without running
// them, for callers that hand the plan to an external terminal spawn.
func PlanShellLines(req Request, officialNames, aurNames []string) []string {
	steps := BuildPlan(req, officialNames, aurNames)
	lines := make([]string, 0, len(steps))
	for _, s := range steps {
		lines = append(lines, s.ShellLine)
	}
	return lines
}

func scanInto(r io.Reader, out chan<- string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}
