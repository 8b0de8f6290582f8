package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
	"github.com/spf13/cobra"
)

var stakeCmd = &cobra.Command{
	Use:   "stake [amount]",
	Short: "Stake tokens on the configured key, or another with --pubkey",
	Args:  cobra.ExactArgs(1),
	Run:   stakeRun,
}

var stakePubKey string

func init() {
	rootCmd.AddCommand(stakeCmd)
	stakeCmd.Flags().StringVarP(&stakePubKey, "pubkey", "p", "", "Credit the stake to this public key instead.")
}

func stakeRun(cmd *cobra.Command, args []string) {
	amount, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		log.Fatal(err)
	}

	pubKey := stakePubKey
	if pubKey == "" {
		privateKey, err := crypto.LoadECDSA(privateKeyPath())
		if err != nil {
			log.Fatal(err)
		}
		pubKey = signature.PublicKeyHex(privateKey)
	}

	payload := struct {
		PubKey string `json:"pubkey"`
		Amount uint64 `json:"amount"`
	}{
		PubKey: pubKey,
		Amount: amount,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/stakes/credit", url), "application/json", bytes.NewReader(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var result struct {
		Status string `json:"status"`
		PubKey string `json:"pubkey"`
		Stake  uint64 `json:"stake"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}

	fmt.Println("status:", result.Status)
	fmt.Println("pubkey:", result.PubKey)
	fmt.Println("stake:", result.Stake)
}
