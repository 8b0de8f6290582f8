package commands

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain from head to genesis",
	Run:   chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

func chainRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/chain/list", url))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var hashes []string
	if err := json.NewDecoder(resp.Body).Decode(&hashes); err != nil {
		log.Fatal(err)
	}

	for i, hash := range hashes {
		fmt.Printf("%4d: %s\n", len(hashes)-1-i, hash)
	}
}
