//go:build unix

package capabilities

import (
	"os/exec"
	"syscall"
)

// configureProcess runs the command in its own process group and kills
// the whole group on cancellation, so background children die too.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
