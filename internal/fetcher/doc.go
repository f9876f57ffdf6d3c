// Package fetcher retrieves character entities from the remote chat API.
//
// Client layers a TTL cache and optional request pacing over a Transport. Transport
// implementations live in the nethttp and colly subpackages and are chosen once at
// startup. Client.Fetch never returns a Go error: 404s, unexpected statuses, decode
// failures and timeouts all come back as a typed pagegen.FetchResult so callers can
// substitute placeholder content uniformly.
package fetcher
