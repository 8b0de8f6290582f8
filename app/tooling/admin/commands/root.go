// Package commands contains the admin tool commands for operating a
// consensus node.
package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	keyName string
	keyPath string
	url     string
)

const keyExtension = ".ecdsa"

func init() {
	rootCmd.PersistentFlags().StringVarP(&keyName, "key", "k", "node1", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&keyPath, "key-path", "p", "zblock/participants/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node's public API.")
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative tasks for a consensus node",
}

// Execute runs the admin command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func privateKeyPath() string {
	name := keyName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(keyPath, name)
}
