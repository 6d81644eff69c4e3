package main

import (
	"log"

	"github.com/m3rciful/lnmubot/core/cmd"
	coreconfig "github.com/m3rciful/lnmubot/core/config"
	"github.com/m3rciful/lnmubot/internal/app"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		Bootstrap: func(cfg *coreconfig.Config) (cmd.TelegramApp, error) {
			a, err := app.New(cfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
