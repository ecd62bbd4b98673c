package main

import (
	"os"

	log "github.com/Ptt-Alertor/logrus"

	"github.com/RxRoster/rxroster/command"
)

func main() {
	if err := command.Execute(); err != nil {
		log.WithError(err).Error("rxroster exited")
		os.Exit(1)
	}
}
