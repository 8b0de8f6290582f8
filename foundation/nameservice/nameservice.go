// Package nameservice reads the zblock/participants folder and creates a
// name service lookup for the network participants.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
)

// NameService maintains a map of participant public keys for name lookup.
type NameService struct {
	participants map[string]string
}

// New constructs a name service with participants from the specified folder
// of .ecdsa key files.
func New(root string) (*NameService, error) {
	ns := NameService{
		participants: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		pubKey := signature.PublicKeyHex(privateKey)
		ns.participants[pubKey] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified public key.
func (ns *NameService) Lookup(pubKey string) string {
	name, exists := ns.participants[pubKey]
	if !exists {
		return pubKey
	}
	return name
}

// Copy returns a copy of the map of names and public keys.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.participants))
	for pubKey, name := range ns.participants {
		cpy[pubKey] = name
	}
	return cpy
}
