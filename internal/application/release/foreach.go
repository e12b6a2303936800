package release

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jitrel/jitrel/internal/domain/release"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// ForeachInput configures the batch runner.
type ForeachInput struct {
	// Command is the command and its arguments, run once per released
	// project.
	Command []string
	// Pause waits for a newline on Prompt between runs, giving the
	// operator a chance to inspect each result.
	Pause  bool
	Prompt io.Reader
	// Stdout and Stderr receive the command's output. Nil means the
	// process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// ForeachOutput reports which projects the command ran for.
type ForeachOutput struct {
	Ran []string `json:"ran"`
}

// ForeachReleasedUseCase runs a command in the directory of every project
// released in the release commit at HEAD, sequentially and in record
// order. The released project and version are exposed through the
// JITREL_RELEASED_PROJECT and JITREL_RELEASED_VERSION environment
// variables. The first failing command aborts the run.
type ForeachReleasedUseCase struct {
	session *Session
}

// NewForeachReleasedUseCase creates the batch runner.
func NewForeachReleasedUseCase(session *Session) *ForeachReleasedUseCase {
	return &ForeachReleasedUseCase{session: session}
}

// Execute runs the command for every released project.
func (uc *ForeachReleasedUseCase) Execute(ctx context.Context, input ForeachInput) (*ForeachOutput, error) {
	const op = "release.ForeachReleased"
	s := uc.session

	if len(input.Command) == 0 {
		return nil, jerrors.Validation(op, "no command given")
	}

	head, err := s.repo.Head(ctx)
	if err != nil {
		return nil, err
	}
	message, err := s.repo.CommitMessage(ctx, head)
	if err != nil {
		return nil, err
	}
	info, err := release.ParseReleaseInfo(message)
	if err != nil {
		if errors.Is(err, release.ErrNoInfoBlock) {
			return nil, jerrors.State(op, "HEAD is not a release commit")
		}
		return nil, err
	}

	stdout := input.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := input.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var prompt *bufio.Reader
	if input.Pause && input.Prompt != nil {
		prompt = bufio.NewReader(input.Prompt)
	}

	out := &ForeachOutput{}
	for _, entry := range info.Projects {
		if entry.Age != 0 {
			continue
		}
		q, err := entry.QualifiedName()
		if err != nil {
			return nil, err
		}
		p, ok := s.reg.ByQualifiedName(q)
		if !ok {
			s.logger.Warn("release record names a project absent from the tree", "project", q)
			continue
		}

		s.logger.Info("running command for released project",
			"project", q, "version", entry.Version)

		cmd := exec.CommandContext(ctx, input.Command[0], input.Command[1:]...)
		cmd.Dir = filepath.Join(s.repo.Root(), filepath.FromSlash(p.Prefix()))
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		cmd.Env = append(os.Environ(),
			"JITREL_RELEASED_PROJECT="+q.String(),
			"JITREL_RELEASED_VERSION="+entry.Version,
		)
		if err := cmd.Run(); err != nil {
			return out, jerrors.Wrap(err, jerrors.KindInternal, op,
				fmt.Sprintf("command failed for %s", q))
		}
		out.Ran = append(out.Ran, q.String())

		if prompt != nil {
			fmt.Fprint(stdout, "press enter to continue...")
			if _, err := prompt.ReadString('\n'); err != nil {
				if !errors.Is(err, io.EOF) {
					return out, jerrors.IOWrap(err, op, "reading pause prompt")
				}
				// Prompt input exhausted; stop pausing for the rest
				// of the batch.
				prompt = nil
			}
		}
	}
	return out, nil
}
