package commands

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
	"github.com/spf13/cobra"
)

type stakeInfo struct {
	PubKey string `json:"pubkey"`
	Name   string `json:"name"`
	Stake  uint64 `json:"stake"`
}

var stakesCmd = &cobra.Command{
	Use:   "stakes",
	Short: "Print the stake balances, or your own with --mine",
	Run:   stakesRun,
}

var mineOnly bool

func init() {
	rootCmd.AddCommand(stakesCmd)
	stakesCmd.Flags().BoolVarP(&mineOnly, "mine", "m", false, "Only show the stake for the configured key.")
}

func stakesRun(cmd *cobra.Command, args []string) {
	endpoint := fmt.Sprintf("%s/v1/stakes/list", url)

	if mineOnly {
		privateKey, err := crypto.LoadECDSA(privateKeyPath())
		if err != nil {
			log.Fatal(err)
		}
		endpoint = fmt.Sprintf("%s/%s", endpoint, signature.PublicKeyHex(privateKey))
	}

	resp, err := http.Get(endpoint)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var stakes []stakeInfo
	if err := json.NewDecoder(resp.Body).Decode(&stakes); err != nil {
		log.Fatal(err)
	}

	for _, s := range stakes {
		fmt.Printf("%s (%s): %d\n", s.Name, s.PubKey, s.Stake)
	}
}
