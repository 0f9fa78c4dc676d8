package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SetProjectProfile rewrites the profile reference in the project's
// dbt_project.yml so the project resolves against our generated profile.
// An existing profile line is replaced in place; otherwise one is inserted
// after the name line.
func SetProjectProfile(projectDir, name string) error {
	path := filepath.Join(projectDir, "dbt_project.yml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	lines := strings.Split(string(raw), "\n")
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "profile:") {
			lines[i] = fmt.Sprintf("profile: %q", name)
			replaced = true
			break
		}
	}
	if !replaced {
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "name:") {
				rest := append([]string{fmt.Sprintf("profile: %q", name)}, lines[i+1:]...)
				lines = append(lines[:i+1], rest...)
				break
			}
		}
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
