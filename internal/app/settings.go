package app

import (
	"errors"
	"sync"
)

// Settings holds the portal-wide toggles handlers consult on every request.
type Settings struct {
	RegistrationOpen bool
	MaintenanceMode  bool
}

// SettingsSnapshot exposes a process-wide view of the portal settings. The
// snapshot is loaded once at start-up and only changes when Reload is called
// explicitly; there is no background refresh, so two requests served by the
// same process always observe the same values.
type SettingsSnapshot struct {
	mu      sync.RWMutex
	current Settings
	load    func() (Settings, error)
}

// NewSettingsSnapshot performs the initial load and returns the snapshot.
func NewSettingsSnapshot(load func() (Settings, error)) (*SettingsSnapshot, error) {
	if load == nil {
		return nil, errors.New("settings: load function is required")
	}

	snapshot := &SettingsSnapshot{load: load}
	if err := snapshot.Reload(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// StaticSettings returns a snapshot sourced from the feature flags. Reload
// re-reads the same flags, so the values never change for the process.
func StaticSettings(features FeatureConfig) *SettingsSnapshot {
	snapshot, _ := NewSettingsSnapshot(func() (Settings, error) {
		return Settings{
			RegistrationOpen: features.RegistrationOpen,
			MaintenanceMode:  features.MaintenanceMode,
		}, nil
	})
	return snapshot
}

// Current returns the most recently loaded settings.
func (s *SettingsSnapshot) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-runs the loader and swaps the snapshot atomically. On failure the
// previous values stay in effect.
func (s *SettingsSnapshot) Reload() error {
	next, err := s.load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return nil
}
