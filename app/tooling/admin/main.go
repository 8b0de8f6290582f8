// This program performs administrative tasks for a consensus node.
package main

import (
	"github.com/matchchain/matchchain/app/tooling/admin/commands"
)

func main() {
	commands.Execute()
}
