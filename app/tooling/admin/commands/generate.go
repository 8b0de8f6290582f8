package commands

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new participant key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	if err := crypto.SaveECDSA(privateKeyPath(), privateKey); err != nil {
		log.Fatal(err)
	}

	fmt.Println("wrote key:", privateKeyPath())
	fmt.Println("public key:", signature.PublicKeyHex(privateKey))
}
