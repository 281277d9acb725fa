// Package config loads the panel's TOML configuration.
//
// # Resolution Order
//
//  1. The path given with -config, otherwise ~/.config/atmbitbit/config.toml
//  2. A missing file is not an error; every key has a default
//  3. ATMBITBIT_* environment variables override file values
//  4. Blank values fall back to defaults
//
// # Example
//
//	server_url = "https://pay.example.com"
//	extension_path = "/atmbitbit"
//	poll_seconds = 20
//	export_dir = "~/atm-configs"
//	log_level = "debug"
//
//	[[wallets]]
//	id = "8f1c..."
//	name = "Main"
//	admin_key = "b2e4..."
//
//	[fiat_currencies]
//	EUR = "Euro"
//	CZK = "Czech Koruna"
//
//	[exchange_rate_providers]
//	coinbase = "Coinbase"
//	coinmate = "CoinMate"
//
// The first wallet's admin key is used for listing. Every wallet that owns a
// terminal must be present with its admin key for edits and deletes of that
// terminal to be possible.
//
// # Environment
//
//   - ATMBITBIT_SERVER_URL, ATMBITBIT_CALLBACK_URL
//   - ATMBITBIT_ADMIN_KEY and ATMBITBIT_WALLET_ID, together, replace the
//     wallet list with a single wallet
//   - ATMBITBIT_LOG_LEVEL, ATMBITBIT_EXPORT_DIR
//
// The callback URL defaults to <server_url><extension_path>/u, the LNURL
// endpoint the terminals call.
package config
