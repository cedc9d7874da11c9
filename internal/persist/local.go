package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	saveFile   = "save.json"
	deviceFile = "device.json"
)

// Device is per-install state that survives "delete save".
type Device struct {
	PlayerID     string    `json:"player_id"`
	ReferralUsed bool      `json:"referral_used"`
	CreatedAt    time.Time `json:"created_at"`
}

// LocalStore keeps the save and device files under one directory.
type LocalStore struct {
	dir string

	mu     sync.Mutex
	device *Device
}

// DefaultDir is ~/.bricks.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bricks"), nil
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// LoadSave returns the raw snapshot, or nil when nothing was saved yet.
func (s *LocalStore) LoadSave() ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, saveFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

func (s *LocalStore) WriteSave(raw []byte) error {
	return writeFileAtomic(filepath.Join(s.dir, saveFile), raw)
}

func (s *LocalStore) DeleteSave() error {
	err := os.Remove(filepath.Join(s.dir, saveFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Device loads the device file, creating it with a fresh player id on first use.
func (s *LocalStore) Device() (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadDeviceLocked()
}

func (s *LocalStore) loadDeviceLocked() (Device, error) {
	if s.device != nil {
		return *s.device, nil
	}
	path := filepath.Join(s.dir, deviceFile)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var d Device
		if err := json.Unmarshal(raw, &d); err != nil {
			return Device{}, fmt.Errorf("decode device file: %w", err)
		}
		if d.PlayerID == "" {
			d.PlayerID = uuid.NewString()
			if err := s.writeDeviceLocked(d); err != nil {
				return Device{}, err
			}
		}
		s.device = &d
		return d, nil
	case errors.Is(err, os.ErrNotExist):
		d := Device{PlayerID: uuid.NewString(), CreatedAt: time.Now().UTC()}
		if err := s.writeDeviceLocked(d); err != nil {
			return Device{}, err
		}
		s.device = &d
		return d, nil
	default:
		return Device{}, err
	}
}

func (s *LocalStore) writeDeviceLocked(d Device) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, deviceFile), raw); err != nil {
		return err
	}
	s.device = &d
	return nil
}

func (s *LocalStore) ReferralUsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.loadDeviceLocked()
	if err != nil {
		// An unreadable device file must not hand out a second bonus.
		return true
	}
	return d.ReferralUsed
}

func (s *LocalStore) MarkReferralUsed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.loadDeviceLocked()
	if err != nil {
		return err
	}
	d.ReferralUsed = true
	return s.writeDeviceLocked(d)
}

func writeFileAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
