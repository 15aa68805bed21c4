// Package session persists CLI credentials between invocations. Tokens live
// under ~/.healthvault with owner-only permissions.
package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const dirName = ".healthvault"

func dir() (string, error) {
	d := os.Getenv("HEALTHVAULT_CONFIG_DIR")
	if d == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		d = filepath.Join(home, dirName)
	}
	if err := os.MkdirAll(d, 0700); err != nil {
		return "", err
	}
	return d, nil
}

func write(name, value string) error {
	d, err := dir()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d, name), []byte(value), 0600)
}

func read(name string) (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(d, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func SaveToken(token string) error   { return write("token", token) }
func SaveRefresh(token string) error { return write("refresh", token) }

func LoadToken() (string, error)   { return read("token") }
func LoadRefresh() (string, error) { return read("refresh") }

// Clear removes stored credentials. Used by logout.
func Clear() error {
	d, err := dir()
	if err != nil {
		return err
	}
	for _, name := range []string{"token", "refresh"} {
		if err := os.Remove(filepath.Join(d, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// EnsureAccessToken returns the stored access token, falling back to the
// refresh flow against serverURL when none is stored.
func EnsureAccessToken(serverURL string) (string, error) {
	tok, err := LoadToken()
	if err == nil && tok != "" {
		return tok, nil
	}
	r, err := LoadRefresh()
	if err != nil || r == "" {
		return "", fmt.Errorf("no access token, please login")
	}
	b, _ := json.Marshal(map[string]string{"refresh_token": r})
	resp, err := http.Post(serverURL+"/api/v1/auth/refresh", "application/json", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("refresh failed: %s", resp.Status)
	}
	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("empty access token on refresh")
	}
	_ = SaveToken(out.AccessToken)
	// the server rotated our refresh token; the presented one is dead
	if out.RefreshToken != "" {
		_ = SaveRefresh(out.RefreshToken)
	}
	return out.AccessToken, nil
}
