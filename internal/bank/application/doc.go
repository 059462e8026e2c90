// Package application implements bank loading on top of the domain types.
//
// # Ports
//
//   - Fetcher: retrieves bytes for a URL and reports progress
//   - BankReader / BankWriter / BankStore: registry access
//
// # Loader
//
// Loader.Load fetches a bank asynchronously, decodes it, and stores it in the
// registry under the caller's id. Results are delivered through optional
// callbacks (OnSuccess, OnError, OnProgress) and through the returned
// *Pending, which can be awaited. Fetch failures and decode failures both
// travel through the error path; the registry is only written on success.
//
// Infrastructure adapters (HTTP, file, data URI fetchers and the go-cache
// registry) live in the sibling infrastructure package.
package application
