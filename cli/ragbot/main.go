package main

import (
	"os"

	ragbotcmder "github.com/neehanthreddym/ragbot/cmd/ragbot"
)

func main() {
	cmd := ragbotcmder.NewRagbotCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
