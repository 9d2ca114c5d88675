package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RefreshData records when statements for an account were last refreshed
type RefreshData struct {
	LastRefresh int64 `json:"last_refresh"`
	UpdatedAt   int64 `json:"updated_at"`
}

// GetAppDataDir returns the application data directory
func GetAppDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	appDataDir := filepath.Join(homeDir, ".foliosync")
	if err := os.MkdirAll(appDataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create app data directory: %w", err)
	}

	return appDataDir, nil
}

// GetRefreshFilePath returns the path to the refresh file for a specific account
func GetRefreshFilePath(account string) (string, error) {
	appDataDir, err := GetAppDataDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(appDataDir, fmt.Sprintf("%s_refresh.json", account)), nil
}

// SaveLastRefresh saves the last refresh timestamp for an account
func SaveLastRefresh(account string, timestamp int64) error {
	filePath, err := GetRefreshFilePath(account)
	if err != nil {
		return err
	}

	data := RefreshData{
		LastRefresh: timestamp,
		UpdatedAt:   time.Now().Unix(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh data: %w", err)
	}

	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write refresh file: %w", err)
	}

	return nil
}

// GetLastRefresh gets the last refresh timestamp for an account
func GetLastRefresh(account string) (int64, error) {
	filePath, err := GetRefreshFilePath(account)
	if err != nil {
		return 0, err
	}

	if _, statErr := os.Stat(filePath); os.IsNotExist(statErr) {
		return 0, nil
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read refresh file: %w", err)
	}

	var data RefreshData
	if err := json.Unmarshal(fileData, &data); err != nil {
		return 0, fmt.Errorf("failed to unmarshal refresh data: %w", err)
	}

	return data.LastRefresh, nil
}
