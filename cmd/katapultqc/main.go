package main

import (
	"log"
	"os"

	"katapultqc/pkg/cli"
	"katapultqc/pkg/logging"
)

func main() {
	logging.SetLogLevel()

	app, err := cli.NewApp()
	if err != nil {
		log.Printf("error: %v", err)
		cli.PrintUsageExamples()
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}
