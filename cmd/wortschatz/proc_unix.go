//go:build unix

package main

import "syscall"

// detachedProcAttr puts the daemon in its own process group so terminal
// signals aimed at the CLI never reach it.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
