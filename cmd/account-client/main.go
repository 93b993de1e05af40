/*
This is a simple app that listens to the account stream and prints every
trade update (fills, cancels, replaces), reconnecting when the connection
drops. It also polls account snapshots in the background and prints a
one-line summary per snapshot.
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

	"github.com/alpacaconnect/alpaca-sdk-go/client/rest"
	"github.com/alpacaconnect/alpaca-sdk-go/client/websocket"
	"github.com/alpacaconnect/alpaca-sdk-go/config"
	"github.com/alpacaconnect/alpaca-sdk-go/portfolio"
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
	)

	flag.StringVarP(&configFile, "config", "c", defaultConfig, "Configuration file")
	flag.BoolVarP(&verbose, "verbose", "v", false, "Prints all debug messages to stdout")

	flag.Parse()

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

	client, err := websocket.NewAccountStreamClient(&websocket.WSParams{
		URL:       cfg.StreamURL,
		APIKey:    cfg.APIKey,
		SecretKey: cfg.SecretKey,
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

	restClient := rest.NewRESTClient(&rest.RESTClientParams{
		APIURL:    cfg.APIURL,
		DataURL:   cfg.DataURL,
		APIKey:    cfg.APIKey,
		SecretKey: cfg.SecretKey,
	})

	poller := portfolio.NewPoller(portfolio.PollerParams{
		Source:   restClient,
		Interval: cfg.PollInterval(),
	})

	go func() {
		for snapshot := range poller.Poll(ctx) {
			if snapshot.Account == nil {
				log.Warn("snapshot: account unavailable")
				continue
			}
			fmt.Printf("snapshot %s: equity %s, %d positions, %d open orders\n",
				snapshot.CapturedAt.Format("15:04:05"),
				snapshot.Account.Equity, len(snapshot.Positions), len(snapshot.OpenOrders))
		}
	}()

	err = websocket.Retry(ctx, websocket.DefaultRetryOpts, nil, func(ctx context.Context) error {
		updates, errc := client.Listen(ctx)

		for batch := range updates {
			for _, u := range batch {
				switch {
				case u.TradeUpdate != nil:
					tu := u.TradeUpdate
					fmt.Printf("%s %s %s: qty %s price %s (order %s)\n",
						tu.Event, tu.Order.Side, tu.Order.Symbol, tu.Qty, tu.Price, tu.Order.ID)
				case u.ControlAck != nil:
					log.Debugf("ack: %+v", u.ControlAck)
				case u.ControlError != nil:
					log.Warnf("stream error %d: %s", u.ControlError.Code, u.ControlError.Msg)
				}
			}
		}

		return <-errc
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
