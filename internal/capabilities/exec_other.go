//go:build !unix

package capabilities

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
