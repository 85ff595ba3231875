package main

import (
	"github.com/rs/zerolog/log"

	"github.com/chromedash/chromedash/pkg/gateway"
)

func main() {
	gw, err := gateway.NewGateway()
	if err != nil {
		log.Fatal().Err(err).Msg("error creating gateway service")
	}

	if err := gw.Start(); err != nil {
		log.Fatal().Err(err).Msg("error starting gateway")
	}
}
