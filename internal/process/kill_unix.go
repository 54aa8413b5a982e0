//go:build !windows

package process

import "syscall"

// GroupAttr returns SysProcAttr placing the child in its own process
// group so escalation signals reach the whole converter process tree.
func GroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// Terminate asks a process group to exit by sending SIGTERM to the
// group (negative PID). Best-effort; the escalation path follows with
// KillProcessGroup if the group ignores it.
func Terminate(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGTERM)
}

// KillProcessGroup kills a process and all its children by sending
// SIGKILL to the process group (negative PID). Best-effort.
func KillProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
