package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/config"
	"github.com/urfave/cli/v2"
)

var (
	assetFlag = cli.StringFlag{
		Name:     "asset",
		Usage:    "the asset to operate on: BTC or LTC",
		Required: true,
	}
	addressFlag = cli.StringFlag{
		Name:     "address",
		Usage:    "the address to look up",
		Required: true,
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "swap CLI"
	app.Usage = "Command line interface for swapd wallets and swaps"
	app.Before = func(*cli.Context) error {
		if err := config.InitConfig(); err != nil {
			return err
		}
		log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
		return nil
	}
	app.Commands = append(
		app.Commands,
		&configCmd,
		&feerate,
		&balance,
		&history,
		&send,
		&swaps,
		&match,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func printRespJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonBytes))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[swapcli] %v\n", err)
	os.Exit(1)
}
