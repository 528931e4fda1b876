//go:build windows

package supervisor

import (
	"io/fs"
	"os/exec"
)

func terminate(cmd *exec.Cmd) func() error {
	return func() error {
		return cmd.Process.Kill()
	}
}

func executable(string, fs.FileMode) bool {
	return true
}
