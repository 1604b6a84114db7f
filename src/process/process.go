// Package process implements subprocess management for running VCS and
// build Action commands.
package process

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/Flameeyes/muddle/src/cli"
	"github.com/Flameeyes/muddle/src/cli/logging"
)

var log = logging.Log

// An Executor runs subprocesses on behalf of Actions (checkouts, package
// builds, deployments) and kills any still running if the process receives
// a terminating signal.
type Executor struct {
	processes map[*exec.Cmd]<-chan error
	mutex     sync.Mutex
}

// New returns a new Executor and registers it to kill its subprocesses at exit.
func New() *Executor {
	e := &Executor{processes: map[*exec.Cmd]<-chan error{}}
	cli.AtExit(e.killAll)
	return e
}

// ExecWithTimeout runs an external command with a timeout, returning its
// combined stdout/stderr and any error. If showOutput is true, output is
// also mirrored to stderr as it's produced.
func (e *Executor) ExecWithTimeout(ctx context.Context, dir string, env []string, timeout time.Duration, showOutput bool, argv []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var out safeBuffer
	if showOutput {
		cmd.Stdout = &multiWriter{os.Stderr, &out}
		cmd.Stderr = &multiWriter{os.Stderr, &out}
	} else {
		cmd.Stdout = &out
		cmd.Stderr = &out
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	ch := make(chan error, 1)
	e.registerProcess(cmd, ch)
	defer e.removeProcess(cmd)
	go func() { ch <- cmd.Wait() }()

	select {
	case err := <-ch:
		return out.Bytes(), err
	case <-ctx.Done():
		e.KillProcess(cmd)
		return out.Bytes(), ctx.Err()
	}
}

// KillProcess kills a process, sending SIGTERM first and SIGKILL shortly
// after if it hasn't exited.
func (e *Executor) KillProcess(cmd *exec.Cmd) {
	e.killProcess(cmd, e.processChan(cmd))
}

func (e *Executor) killProcess(cmd *exec.Cmd, ch <-chan error) {
	success := sendSignal(cmd, ch, syscall.SIGTERM, 30*time.Millisecond)
	if !sendSignal(cmd, ch, syscall.SIGKILL, time.Second) && !success {
		log.Error("Failed to kill inferior process")
	}
	e.removeProcess(cmd)
}

func (e *Executor) registerProcess(cmd *exec.Cmd, ch <-chan error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.processes[cmd] = ch
}

func (e *Executor) removeProcess(cmd *exec.Cmd) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.processes, cmd)
}

func (e *Executor) processChan(cmd *exec.Cmd) <-chan error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.processes[cmd]
}

func (e *Executor) killAll() {
	e.mutex.Lock()
	var wg sync.WaitGroup
	wg.Add(len(e.processes))
	defer wg.Wait()
	defer e.mutex.Unlock()
	for proc, ch := range e.processes {
		go func(proc *exec.Cmd, ch <-chan error) {
			e.killProcess(proc, ch)
			wg.Done()
		}(proc, ch)
	}
}

// sendSignal sends sig to the process group and returns true if it exited within timeout.
func sendSignal(cmd *exec.Cmd, ch <-chan error, sig syscall.Signal, timeout time.Duration) bool {
	if cmd.Process == nil {
		return false
	}
	syscall.Kill(-cmd.Process.Pid, sig)
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

// safeBuffer is a concurrency-safe bytes.Buffer; stdout and stderr of the
// same command can both write to it from separate goroutines.
type safeBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (sb *safeBuffer) Write(b []byte) (int, error) {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.Write(b)
}

func (sb *safeBuffer) Bytes() []byte {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.Bytes()
}

// multiWriter mirrors writes to each of its members, returning the first error.
type multiWriter []interface {
	Write([]byte) (int, error)
}

func (m *multiWriter) Write(b []byte) (int, error) {
	for _, w := range *m {
		if _, err := w.Write(b); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// ExecCommand runs the given command to completion in dir and returns its combined output.
func ExecCommand(dir string, args ...string) ([]byte, error) {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}
