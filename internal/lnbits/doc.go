// Package lnbits provides an HTTP client for the LNbits atmbitbit extension API.
//
// # Overview
//
// This package is the transport adapter of the panel. It performs authenticated
// JSON calls against an LNbits instance and turns non-2xx answers into
// structured *APIError values carrying the server's human-readable message.
//
//   - client.go: Client, the generic Request call and typed endpoint helpers
//   - types.go: payloads mirroring the extension schema (AtmBitBit, Fee, Wallet)
//
// # Client Usage
//
//	client, err := lnbits.NewClient("https://lnbits.example.com", lnbits.DefaultExtensionPath)
//	if err != nil {
//		return err
//	}
//	items, err := client.ListAtmBitBits(ctx, wallet.AdminKey, true)
//
// # API Endpoints
//
// Paths are relative to the extension prefix (default /atmbitbit):
//
//   - GET    /api/v1/atmbitbits?all_wallets=true
//   - GET    /api/v1/atmbitbit/{id}
//   - POST   /api/v1/atmbitbit
//   - PUT    /api/v1/atmbitbit/{id}
//   - DELETE /api/v1/atmbitbit/{id}
//
// # Authentication
//
// Every call carries the wallet admin key in the X-Api-Key header. Each request
// also gets a random X-Request-Id which is written to the debug log so a call
// can be matched with server logs.
//
// # Error Handling
//
//   - Transport failures: "execute request: ..." (wrapped net/http error)
//   - HTTP errors: *APIError with Status and Message (FastAPI "detail" when present)
//   - Decode failures: "decode response: ..."
//
// The client never retries. Timeouts come from the underlying http.Client.
package lnbits
