// Package launch starts the browser process. It does not supervise it: the
// child is reaped in the background and never waited on by callers.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"time"
)

// Launcher starts argv[0] with argv[1:] as arguments.
type Launcher interface {
	Launch(ctx context.Context, argv []string) (*Process, error)
}

// Process describes a started browser.
type Process struct {
	PID       int
	Argv      []string
	StartedAt time.Time
}

// LaunchError reports a spawn that never produced a process.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExecLauncher spawns processes with os/exec, without a shell.
type ExecLauncher struct {
	// Dir is the working directory for the child; empty inherits ours.
	Dir string
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

func NewExecLauncher() *ExecLauncher { return &ExecLauncher{} }

// Launch returns as soon as the process has started. ctx only bounds the
// lookup and start; cancelling it later does not touch the browser.
func (l *ExecLauncher) Launch(ctx context.Context, argv []string) (*Process, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, &LaunchError{Err: errors.New("no executable configured")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Path: argv[0], Err: err}
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, &LaunchError{Path: argv[0], Err: err}
	}
	cmd := exec.Command(path, argv[1:]...)
	cmd.Dir = l.Dir
	cmd.Env = l.Env
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}
	proc := &Process{PID: cmd.Process.Pid, Argv: append([]string(nil), argv...), StartedAt: time.Now()}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("browser pid %d exited: %v", proc.PID, err)
		}
	}()
	return proc, nil
}
