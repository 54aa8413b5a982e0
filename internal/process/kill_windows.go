//go:build windows

package process

import (
	"os/exec"
	"strconv"
	"syscall"
)

// GroupAttr returns nil on Windows; taskkill /T covers the tree.
func GroupAttr() *syscall.SysProcAttr {
	return nil
}

// Terminate requests a graceful stop. Windows has no SIGTERM
// equivalent for console-less services, so this politely asks taskkill
// without /F first.
func Terminate(pid int) {
	_ = exec.Command("taskkill", "/T", "/PID", strconv.Itoa(pid)).Run()
}

// KillProcessGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillProcessGroup(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
