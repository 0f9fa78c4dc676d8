package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dbtflow/dbtflow/internal/connstore"
	"github.com/dbtflow/dbtflow/internal/paths"
)

var connCmd = &cobra.Command{
	Use:   "conn",
	Short: "Manage stored warehouse connections",
}

var connAddFlags struct {
	name           string
	account        string
	user           string
	password       string
	role           string
	database       string
	warehouse      string
	schema         string
	authenticator  string
	privateKeyFile string
	keyPassphrase  string
}

var connAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a named warehouse connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if connAddFlags.name == "" || connAddFlags.account == "" || connAddFlags.user == "" {
			return errors.New("--name, --account and --user are required")
		}

		conn := &connstore.Connection{
			Name:                 connAddFlags.name,
			Account:              connAddFlags.account,
			User:                 connAddFlags.user,
			Password:             connAddFlags.password,
			Role:                 connAddFlags.role,
			Database:             connAddFlags.database,
			Warehouse:            connAddFlags.warehouse,
			Schema:               connAddFlags.schema,
			Authenticator:        connAddFlags.authenticator,
			PrivateKeyPassphrase: connAddFlags.keyPassphrase,
		}
		if connAddFlags.privateKeyFile != "" {
			key, err := os.ReadFile(connAddFlags.privateKeyFile)
			if err != nil {
				return fmt.Errorf("read private key: %w", err)
			}
			conn.PrivateKey = string(key)
		}

		store, err := connstore.New(paths.DefaultConnectionsPath())
		if err != nil {
			return err
		}
		if err := store.AddAndSave(conn); err != nil {
			return err
		}
		log.Infow("connection stored", "name", conn.Name, "id", conn.ID)
		return nil
	},
}

var connListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored warehouse connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := connstore.New(paths.DefaultConnectionsPath())
		if err != nil {
			return err
		}

		conns := store.List()
		if len(conns) == 0 {
			pterm.Println("No connections stored.")
			return nil
		}
		rows := pterm.TableData{{"Name", "Account", "User", "Role", "Database", "Warehouse", "Created"}}
		for _, c := range conns {
			rows = append(rows, []string{
				c.Name, c.Account, c.User, c.Role, c.Database, c.Warehouse,
				c.CreatedAt.Format("2006-01-02"),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var connRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a stored warehouse connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := connstore.New(paths.DefaultConnectionsPath())
		if err != nil {
			return err
		}
		conn, err := store.RemoveAndSave(args[0])
		if err != nil {
			return err
		}
		log.Infow("connection removed", "name", conn.Name)
		return nil
	},
}

func init() {
	f := connAddCmd.Flags()
	f.StringVar(&connAddFlags.name, "name", "", "Connection name")
	f.StringVar(&connAddFlags.account, "account", "", "Account identifier")
	f.StringVar(&connAddFlags.user, "user", "", "User name")
	f.StringVar(&connAddFlags.password, "password", "", "Password")
	f.StringVar(&connAddFlags.role, "role", "", "Role")
	f.StringVar(&connAddFlags.database, "database", "", "Database")
	f.StringVar(&connAddFlags.warehouse, "warehouse", "", "Warehouse")
	f.StringVar(&connAddFlags.schema, "schema", "", "Schema")
	f.StringVar(&connAddFlags.authenticator, "authenticator", "", "Authenticator")
	f.StringVar(&connAddFlags.privateKeyFile, "private-key-file", "", "Path to a PEM-encoded private key")
	f.StringVar(&connAddFlags.keyPassphrase, "private-key-passphrase", "", "Private key passphrase")

	connCmd.AddCommand(connAddCmd, connListCmd, connRemoveCmd)
	rootCmd.AddCommand(connCmd)
}
