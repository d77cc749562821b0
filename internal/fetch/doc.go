// Package fetch retrieves source pages and parses them into HTML trees.
//
// HTTPFetcher is the production Fetcher. It sends a fixed User-Agent, caps
// the body size, paces requests with a token-bucket limiter and can route
// traffic through a SOCKS5 proxy (for example a locally running Tor). file://
// URLs are read from disk so that saved pages can be re-processed offline.
//
// Every Document carries the SHA3-256 hash of the bytes it was parsed from,
// which lets the run history tell whether a source changed between runs.
//
// # Usage
//
//	f, err := fetch.NewHTTPFetcher(
//		fetch.WithTimeout(30*time.Second),
//		fetch.WithRequestDelay(time.Second),
//	)
//	doc, err := f.Fetch(ctx, "https://example.com/2025-victims")
package fetch
