package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/wudi/redactkit/license"
)

// cliState is the persisted license tier of this installation. A "premium"
// marker file flips the tier permanently; otherwise the free-tier quota is
// tracked in quota.json across invocations.
type cliState struct {
	tier      license.State
	quotaPath string
}

func loadState(stateDir string) (*cliState, error) {
	if _, err := os.Stat(filepath.Join(stateDir, "premium")); err == nil {
		return &cliState{tier: license.Premium{}}, nil
	}

	quotaPath := filepath.Join(stateDir, "quota.json")
	free := license.NewFree(time.Now())
	data, err := os.ReadFile(quotaPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run on this machine.
	case err != nil:
		return nil, fmt.Errorf("license state: %w", err)
	default:
		if err := json.Unmarshal(data, free); err != nil {
			return nil, fmt.Errorf("license state %s: %w", quotaPath, err)
		}
		free.Refresh(time.Now())
	}
	return &cliState{tier: free, quotaPath: quotaPath}, nil
}

// save writes the remaining free-tier quota back to disk. Premium state has
// nothing to persist beyond its marker file.
func (s *cliState) save() error {
	free, ok := s.tier.(*license.Free)
	if !ok {
		return nil
	}
	data, err := json.MarshalIndent(free, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.quotaPath, data, 0o600)
}
