package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit [match-id] [winner-pubkey] [moves...]",
	Short: "Submit a finished match for ordering",
	Args:  cobra.MinimumNArgs(3),
	Run:   submitRun,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func submitRun(cmd *cobra.Command, args []string) {
	payload := struct {
		MatchID string   `json:"match_id"`
		Winner  string   `json:"winner"`
		Moves   []string `json:"moves"`
	}{
		MatchID: args[0],
		Winner:  args[1],
		Moves:   args[2:],
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/match/submit", url), "application/json", bytes.NewReader(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var result struct {
		Status string `json:"status"`
		Nonce  string `json:"nonce"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}

	fmt.Println("status:", result.Status)
	fmt.Println("nonce:", result.Nonce)
	fmt.Println("moves:", strings.Join(payload.Moves, " "))
}
