package file

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxResourceSize caps how much of a static text resource we read.
const maxResourceSize = 64 << 10

// ExpandPath expands a leading '~/' to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home dir: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// CreateDirectoryIfNotExist creates a directory if it doesn't already exist.
func CreateDirectoryIfNotExist(directory string) error {
	ok, err := DirectoryExists(directory)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// DirectoryExists returns true if the specified directory exists.
func DirectoryExists(directory string) (bool, error) {
	info, err := os.Stat(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking directory existence: %w", err)
	}
	return info.IsDir(), nil
}

// Exists returns true if the specified file exists.
func Exists(filePath string) (bool, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking file existence: %w", err)
	}
	return !info.IsDir(), nil
}

// ReadResource reads a small plain-text resource and returns it trimmed.
// The location is either an http(s) URL or a local path.
func ReadResource(ctx context.Context, client *http.Client, location string) (string, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		path, err := ExpandPath(location)
		if err != nil {
			return "", err
		}
		bytes, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	response, err := client.Do(request)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", location, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: %s", location, response.Status)
	}

	bytes, err := io.ReadAll(io.LimitReader(response.Body, maxResourceSize))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", location, err)
	}
	return strings.TrimSpace(string(bytes)), nil
}
