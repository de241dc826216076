package main

import (
	"os"

	"github.com/SA-IT-Team/ai-interview-assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
