package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lukasmauer/wortschatz/internal/config"
)

// cmdStart starts the daemon in the background
func cmdStart() error {
	if isRunning() {
		fmt.Println("✓ Daemon is already running")
		return nil
	}

	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("setup wortschatz directory: %w", err)
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	cmd := exec.Command(daemonPath)
	cmd.Dir = dir
	cmd.Stdout = nil
	cmd.Stderr = nil

	cmd.SysProcAttr = detachedProcAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Print("Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if isRunning() {
			fmt.Println(" ✓")
			fmt.Printf("Daemon running at %s\n", daemonAddr)
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'wortschatz logs')")
}

// cmdStop stops the daemon
func cmdStop() error {
	if !isRunning() {
		fmt.Println("Daemon is not running")
		return nil
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}

	pidPath := filepath.Join(dir, pidFile)
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("parse PID: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Print("Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isRunning() {
			fmt.Println(" ✓")
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

// cmdStatus shows daemon status
func cmdStatus() error {
	if !isRunning() {
		fmt.Println("Status: stopped")
		return nil
	}

	resp, err := http.Get(daemonAddr + "/v1/status")
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		Status       string `json:"status"`
		Version      string `json:"version"`
		UptimeS      int    `json:"uptime_s"`
		Levels       int    `json:"levels"`
		Lessons      int    `json:"lessons"`
		Sessions     int    `json:"sessions"`
		CatalogError string `json:"catalog_error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("parse status: %w", err)
	}

	fmt.Printf("Status:   %s\n", status.Status)
	fmt.Printf("Version:  %s\n", status.Version)
	fmt.Printf("Uptime:   %s\n", (time.Duration(status.UptimeS) * time.Second).String())
	fmt.Printf("Catalog:  %d levels, %d lessons\n", status.Levels, status.Lessons)
	fmt.Printf("Sessions: %d\n", status.Sessions)
	fmt.Printf("Address:  %s\n", daemonAddr)
	if status.CatalogError != "" {
		fmt.Printf("Catalog error: %s\n", status.CatalogError)
	}

	return nil
}

// cmdLogs shows daemon logs
func cmdLogs() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	logPath := filepath.Join(dir, "logs", "wortschatzd.log")

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Println("No log file found. Start the daemon first.")
		return nil
	}

	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	// Seek to end and go back ~4KB for recent logs
	info, _ := file.Stat()
	offset := info.Size() - 4096
	if offset < 0 {
		offset = 0
	}
	_, _ = file.Seek(offset, 0)

	// Skip partial first line if we seeked
	if offset > 0 {
		reader := bufio.NewReader(file)
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fmt.Println(scanner.Text())
	}

	return nil
}

// isRunning checks if the daemon is running by calling the health endpoint
func isRunning() bool {
	resp, err := http.Get(daemonAddr + "/v1/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findDaemonBinary locates the wortschatzd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("wortschatzd"); err == nil {
		return path, nil
	}

	self, err := os.Executable()
	if err == nil {
		dir := filepath.Dir(self)
		path := filepath.Join(dir, "wortschatzd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	locations := []string{
		"/usr/local/bin/wortschatzd",
		"./wortschatzd",
		"./cmd/wortschatzd/wortschatzd",
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("wortschatzd binary not found (build with 'go build ./cmd/wortschatzd')")
}
