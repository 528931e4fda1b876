//go:build !windows

package supervisor

import (
	"io/fs"
	"os/exec"

	"golang.org/x/sys/unix"
)

func terminate(cmd *exec.Cmd) func() error {
	return func() error {
		return cmd.Process.Signal(unix.SIGTERM)
	}
}

func executable(path string, mode fs.FileMode) bool {
	if mode&0o111 == 0 {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}
