package paths

import (
	"os"
	"path/filepath"
)

func DefaultConfigDir() string {
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, "dbtflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dbtflow")
}

func DefaultStateDir() string {
	if x := os.Getenv("XDG_STATE_HOME"); x != "" {
		return filepath.Join(x, "dbtflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "dbtflow")
}

func DefaultConnectionsPath() string { return filepath.Join(DefaultStateDir(), "connections.yaml") }
func DefaultReportsDir() string      { return filepath.Join(DefaultStateDir(), "runs") }

// Per-workdir layout mirroring the demo flows: acquired projects live under
// dbt/, database files under data/, generated profiles under config/.
func ProjectsDir(workDir string) string { return filepath.Join(workDir, "dbt") }
func DataDir(workDir string) string     { return filepath.Join(workDir, "data") }
func ProfilesDir(workDir string) string { return filepath.Join(workDir, "config") }
