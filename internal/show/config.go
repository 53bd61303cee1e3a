package show

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scene types understood by the session engine. Unknown types render as
// waiting screens client-side.
const (
	TypeWaiting  = "WAITING"
	TypeProposal = "PROPOSAL"
)

// OfflineSceneID marks the synthetic scene shown when no show is live.
const OfflineSceneID = "OFFLINE"

type Scene struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Type   string      `json:"type"`
	Params SceneParams `json:"params"`
}

type SceneParams map[string]any

// MaxProposals returns the per-participant submission cap configured on a
// PROPOSAL scene, or fallback when absent or malformed.
func (p SceneParams) MaxProposals(fallback int) int {
	v, ok := p["maxProposals"]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return int(n)
		}
	case int:
		if n > 0 {
			return n
		}
	}
	return fallback
}

// Config is the config.json at the root of an extracted show pack.
type Config struct {
	Name   string  `json:"name"`
	Lang   string  `json:"lang"`
	Scenes []Scene `json:"scenes"`
}

// DefaultConfig is used before any show has been loaded.
func DefaultConfig() *Config {
	return &Config{
		Name:   "No show loaded",
		Lang:   "fr",
		Scenes: []Scene{OfflineScene()},
	}
}

// OfflineScene is the pseudo-scene every client renders when the show is
// not live or no playlist resolves.
func OfflineScene() Scene {
	return Scene{
		ID:     OfflineSceneID,
		Title:  "Offline",
		Type:   TypeWaiting,
		Params: SceneParams{"titleDisplay": "SHOW_NOT_STARTED"},
	}
}

// LoadConfig reads shows/<showID>/config.json.
func LoadConfig(dir, showID string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, showID, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("read show config %q: %w", showID, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse show config %q: %w", showID, err)
	}
	if len(cfg.Scenes) == 0 {
		return nil, fmt.Errorf("show %q has no scenes", showID)
	}
	if cfg.Lang == "" {
		cfg.Lang = "fr"
	}
	return &cfg, nil
}
