//go:build !unix

package rinex

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
