package main

import (
	"os"

	"github.com/small-frappuccino/applygate/pkg/app"
	"github.com/small-frappuccino/applygate/pkg/log"
)

// main is the entry point of the application bot.
func main() {
	if err := app.Run("applygate", "APPLYGATE_BOT_TOKEN"); err != nil {
		log.ErrorLoggerRaw().Error("Fatal", "error", err)
		os.Exit(1)
	}
}
