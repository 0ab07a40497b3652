// Package procgroup starts render engines in their own process group so a
// timeout can take down the engine together with every helper it spawned.
package procgroup

import "os/exec"

// Set configures the command to start in a new process group.
// Mandatory for Kill to reach grandchildren.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Kill sends SIGKILL to the process group led by cmd. A command that never
// started or already exited is not an error.
func Kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return kill(cmd)
}

// KillExited sends SIGKILL to whatever is left of the group after its leader
// has been reaped. The group ID is the leader's PID, so it is only valid for
// commands started with Set.
func KillExited(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return killGroup(cmd.Process.Pid)
}
