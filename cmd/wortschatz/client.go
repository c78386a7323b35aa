package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lukasmauer/wortschatz/internal/config"
)

const sessionFileName = "session"

// apiCall sends one request to the daemon and decodes the JSON response
// into out. Non-2xx responses are surfaced as errors using the daemon's
// error body.
func apiCall(method, path string, body, out interface{}) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'wortschatz start' first)")
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, daemonAddr+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("call daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			if apiErr.Details != "" {
				return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Details)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func apiGet(path string, out interface{}) error {
	return apiCall(http.MethodGet, path, nil, out)
}

func apiPost(path string, body, out interface{}) error {
	return apiCall(http.MethodPost, path, body, out)
}

// sessionFilePath is where the CLI remembers the active session id.
func sessionFilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionFileName), nil
}

// currentSessionID reads the remembered session id.
func currentSessionID() (string, error) {
	path, err := sessionFilePath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("no active session (run 'wortschatz session new' first)")
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("no active session (run 'wortschatz session new' first)")
	}
	return id, nil
}

func saveSessionID(id string) error {
	path, err := sessionFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(id+"\n"), 0644)
}

func clearSessionID() error {
	path, err := sessionFilePath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
