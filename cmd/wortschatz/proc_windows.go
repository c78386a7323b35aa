//go:build windows

package main

import "syscall"

// detachedProcAttr detaches the daemon from the CLI's console window.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
