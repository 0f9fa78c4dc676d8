package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dbtflow/dbtflow/internal/connstore"
)

// FileName is the profile file consumed by dbt.
const FileName = "profiles.yml"

// EmbeddedTarget describes a file-backed warehouse output.
type EmbeddedTarget struct {
	Type       string   `yaml:"type"`
	Path       string   `yaml:"path"`
	Threads    int      `yaml:"threads"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// SnowflakeTarget describes a Snowflake output. PrivateKeyPath is filled in
// at write time when key material is present.
type SnowflakeTarget struct {
	Type                   string `yaml:"type"`
	Account                string `yaml:"account"`
	User                   string `yaml:"user"`
	Password               string `yaml:"password"`
	Role                   string `yaml:"role"`
	Database               string `yaml:"database"`
	Warehouse              string `yaml:"warehouse"`
	Schema                 string `yaml:"schema"`
	Authenticator          string `yaml:"authenticator,omitempty"`
	PrivateKeyPath         string `yaml:"private_key_path,omitempty"`
	PrivateKeyPassphrase   string `yaml:"private_key_passphrase,omitempty"`
	Threads                int    `yaml:"threads"`
	ClientSessionKeepAlive bool   `yaml:"client_session_keep_alive"`
	QueryTag               string `yaml:"query_tag,omitempty"`
}

// Profile maps a named dbt profile to a single "dev" output target.
type Profile struct {
	Name   string
	Target any

	// privateKey, when set, is persisted next to the profile and referenced
	// from the Snowflake target by path.
	privateKey []byte
}

// document is the on-disk shape under the profile name.
type document struct {
	Outputs map[string]any `yaml:"outputs"`
	Target  string         `yaml:"target"`
}

// Embedded builds a profile for a file-backed database.
func Embedded(name, adapter, dbPath string, threads int, extensions ...string) *Profile {
	return &Profile{
		Name: name,
		Target: &EmbeddedTarget{
			Type:       adapter,
			Path:       dbPath,
			Threads:    threads,
			Extensions: extensions,
		},
	}
}

// Snowflake builds a profile from a stored connection. Key material, if any,
// is carried along and written out by Write.
func Snowflake(name string, conn *connstore.Connection, threads int, queryTag string) *Profile {
	role := conn.Role
	if role == "" {
		role = "PUBLIC"
	}
	p := &Profile{
		Name: name,
		Target: &SnowflakeTarget{
			Type:          "snowflake",
			Account:       conn.Account,
			User:          conn.User,
			Password:      conn.Password,
			Role:          role,
			Database:      conn.Database,
			Warehouse:     conn.Warehouse,
			Schema:        conn.Schema,
			Authenticator: conn.Authenticator,
			Threads:       threads,
			QueryTag:      queryTag,
		},
	}
	if conn.PrivateKey != "" {
		p.privateKey = []byte(conn.PrivateKey)
		if conn.PrivateKeyPassphrase != "" {
			p.Target.(*SnowflakeTarget).PrivateKeyPassphrase = conn.PrivateKeyPassphrase
		}
	}
	return p
}

// Write serializes the profile into dir/profiles.yml, overwriting any
// existing file: profiles must reflect current credentials, so they are
// regenerated on every run. Returns the profile file path.
func (p *Profile) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	if len(p.privateKey) > 0 {
		keyPath := filepath.Join(dir, p.Name+"_private_key.p8")
		if err := os.WriteFile(keyPath, p.privateKey, 0o600); err != nil {
			return "", fmt.Errorf("write private key: %w", err)
		}
		if t, ok := p.Target.(*SnowflakeTarget); ok {
			t.PrivateKeyPath = keyPath
		}
	}

	doc := map[string]document{
		p.Name: {
			Outputs: map[string]any{"dev": p.Target},
			Target:  "dev",
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
