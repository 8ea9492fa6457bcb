//go:build unix

package rinex

import (
	"os/exec"
	"syscall"
)

// Launch as new process group so that signals (ex: SIGINT) are not sent also the the child process.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
