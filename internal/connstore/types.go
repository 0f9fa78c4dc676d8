package connstore

import "time"

// Connection is a named set of warehouse connection parameters, the local
// stand-in for an externally managed connector block.
type Connection struct {
	ID                   string    `yaml:"id"`
	Name                 string    `yaml:"name"`
	Account              string    `yaml:"account"`
	User                 string    `yaml:"user"`
	Password             string    `yaml:"password,omitempty"`
	Role                 string    `yaml:"role,omitempty"`
	Database             string    `yaml:"database,omitempty"`
	Warehouse            string    `yaml:"warehouse,omitempty"`
	Schema               string    `yaml:"schema,omitempty"`
	Authenticator        string    `yaml:"authenticator,omitempty"`
	PrivateKey           string    `yaml:"private_key,omitempty"`
	PrivateKeyPassphrase string    `yaml:"private_key_passphrase,omitempty"`
	CreatedAt            time.Time `yaml:"created_at"`
}

// storeData holds all stored connections keyed by ID.
type storeData struct {
	Connections map[string]*Connection `yaml:"connections"`
}
