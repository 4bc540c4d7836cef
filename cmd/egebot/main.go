// Command egebot runs the Telegram bot that stores students' exam scores.
package main

import (
	"log"

	corecmd "github.com/m3rciful/egebot/core/cmd"
	"github.com/m3rciful/egebot/internal/app"
)

func main() {
	if err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.Load,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatal(err)
	}
}
