package rinex

import (
	"bytes"
	"fmt"
	"os/exec"
)

// crx2rnx expands Compact RINEX (Hatanaka) data with the tool given.
// Data is piped through the program, no files are written.
// See http://terras.gsi.go.jp/ja/crx2rnx.html
func crx2rnx(tool string, data []byte) ([]byte, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return nil, fmt.Errorf("crx2rnx: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(path, "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	if err := cmd.Run(); err != nil {
		if cmd.ProcessState == nil {
			return nil, fmt.Errorf("crx2rnx: %v", err)
		}
		rc := cmd.ProcessState.ExitCode()
		if rc != 2 { // Error
			return nil, fmt.Errorf("crx2rnx: rc:%d: %v: %s", rc, err, bytes.TrimSpace(stderr.Bytes()))
		}
		logger.Warnf("crx2rnx: %s", bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
