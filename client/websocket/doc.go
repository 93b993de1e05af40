/*
Package websocket provides streaming clients for the brokerage websocket
endpoints. There are two separate back ends: the account stream, which
delivers trade updates (order fills, cancels, replaces), and the market data
stream, which delivers live trades, quotes and minute bars. Each has its own
client: AccountStreamClient and MarketDataStreamClient.

Both clients use the WSParams struct for connection options:

	client, err := websocket.NewAccountStreamClient(&websocket.WSParams{
		APIKey:    "...",
		SecretKey: "...",
	})

A client session is one-shot: Listen dials a single connection and the
session ends when that connection does. The updates channel is closed and
the terminal error is delivered on the error channel:

	updates, errc := client.Listen(ctx)
	for batch := range updates {
		for _, u := range batch {
			// exactly one field of u is set; see common.StreamUpdate
		}
	}
	err := <-errc

To keep a feed alive across disconnects, wrap the session in Retry, which
re-runs it with a linear backoff until the context is canceled:

	websocket.Retry(ctx, websocket.DefaultRetryOpts, nil, func(ctx context.Context) error {
		updates, errc := client.Listen(ctx)
		for batch := range updates {
			handle(batch)
		}
		return <-errc
	})
*/
package websocket
