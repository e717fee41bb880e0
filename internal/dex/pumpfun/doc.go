// Package pumpfun describes the Pump.fun token-launch program on the Solana blockchain.
//
// This package provides:
//   - Request and metadata types for buying, selling and creating tokens.
//   - Event payloads (CreateEvent, TradeEvent, CompleteEvent, SetParamsEvent) and
//     their decoding from "Program data:" log lines.
//   - A websocket Listener that dispatches decoded events to typed handlers.
//   - Slippage helpers working in basis points on 64-bit amounts.
//   - A MetadataFetcher for the JSON document a CreateEvent points to.
//
// Detailed information about each part can be found in its source file:
//   - config.go: program addresses and Global PDA derivation.
//   - events.go: Anchor event discriminators and borsh decoding.
//   - listener.go: log subscription and handler dispatch.
//   - metadata.go: token metadata download with a TTL cache.
//   - slippage.go: slippage math and trade request validation.
//   - types.go: the type catalog.
//
// Usage example:
//
//	cfg := pumpfun.GetDefaultConfig()
//	if err := cfg.Setup(logger); err != nil {
//	    log.Fatal(err)
//	}
//
//	listener := pumpfun.NewListener(wsURL, cfg, pumpfun.Handlers{
//	    OnTrade: func(ev pumpfun.TradeEvent, sig solana.Signature) {
//	        fmt.Println(ev.Mint, ev.SolAmount, sig)
//	    },
//	}, logger)
//
//	if err := listener.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package pumpfun
