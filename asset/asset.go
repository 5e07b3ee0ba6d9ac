package asset

import (
	"embed"
	"fmt"

	"github.com/dixieflatline76/imgedit/util/log"
)

//go:embed text/*
var assets embed.FS

// Manager manages the loading of embedded assets.
type Manager struct{}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{}
}

// GetText loads and returns embedded text asset by name.
func (am *Manager) GetText(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("text name is empty")
	}
	textBytes, err := assets.ReadFile("text/" + name)
	if err != nil {
		log.Println("Error loading text:", err)
		return "", err
	}
	return string(textBytes), nil
}
