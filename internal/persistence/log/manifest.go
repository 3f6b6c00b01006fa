package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"portsim.ai/internal/sim/world"
)

const ManifestFile = "run.json"

// Manifest records what is needed to re-run a journaled simulation.
type Manifest struct {
	RunID     string            `json:"run_id"`
	StartedAt string            `json:"started_at"`
	Config    world.WorldConfig `json:"config"`
	// FakeOracle is false when decisions came from an external analysis
	// process; such runs cannot be replayed.
	FakeOracle bool `json:"fake_oracle"`

	ItemsDigest     string `json:"items_digest"`
	CompaniesDigest string `json:"companies_digest"`
	LocationsDigest string `json:"locations_digest"`
}

func WriteManifest(runDir string, m Manifest) error {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, ManifestFile), append(b, '\n'), 0o644)
}

func ReadManifest(runDir string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(filepath.Join(runDir, ManifestFile))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%s: %w", ManifestFile, err)
	}
	return m, nil
}
