/*
This is a simple app that subscribes to the market data stream for a given
list of symbols and prints every update, keeping the latest values in a
cache.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/alpacaconnect/alpaca-sdk-go/cache"
	"github.com/alpacaconnect/alpaca-sdk-go/client/websocket"
	"github.com/alpacaconnect/alpaca-sdk-go/config"
)

func main() {
	// We need this since getting user's home dir can fail.
	defaultConfig, err := config.DefaultFilepath()
	if err != nil {
		log.Fatal(err)
	}

	var (
		configFile string
		verbose    bool
		symbols    []string
		feed       string
	)

	flag.StringVarP(&configFile, "config", "c", defaultConfig, "Configuration file")
	flag.BoolVarP(&verbose, "verbose", "v", false, "Prints all debug messages to stdout")
	flag.StringSliceVarP(&symbols, "symbol", "s", []string{}, "Symbol to subscribe to. This flag can be given multiple times")
	flag.StringVarP(&feed, "feed", "f", "", "Market data feed (defaults to iex)")

	flag.Parse()

	if len(symbols) == 0 {
		log.Fatal("Error: at least one symbol must be specified")
	}

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.New(configFile)
	if err != nil {
		log.Fatal(err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	client, err := websocket.NewMarketDataStreamClient(&websocket.MarketDataStreamParams{
		WSParams: websocket.WSParams{
			URL:       cfg.DataStreamURL,
			APIKey:    cfg.APIKey,
			SecretKey: cfg.SecretKey,
		},
		Symbols: symbols,
		Feed:    feed,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	latest := cache.New()

	err = websocket.Retry(ctx, websocket.DefaultRetryOpts, nil, func(ctx context.Context) error {
		updates, errc := client.Listen(ctx)

		for batch := range updates {
			latest.Apply(batch)

			for _, u := range batch {
				switch {
				case u.Trade != nil:
					fmt.Printf("%s trade %s @ %s\n", u.Trade.Symbol, u.Trade.Size, u.Trade.Price)
				case u.Quote != nil:
					fmt.Printf("%s quote bid %s ask %s\n", u.Quote.Symbol, u.Quote.BidPrice, u.Quote.AskPrice)
				case u.Bar != nil:
					fmt.Printf("%s bar close %s vol %s\n", u.Bar.Symbol, u.Bar.Close, u.Bar.Volume)
				case u.ControlError != nil:
					log.Warnf("stream error %d: %s", u.ControlError.Code, u.ControlError.Msg)
				default:
					log.Debugf("%s update: %+v", u.Kind(), u)
				}
			}
		}

		return <-errc
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
