// Package client talks to the gophstore backend on behalf of the terminal
// client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the calls
//     the submission flow needs besides uploads: reference data lookups and
//     product creation, plus a liveness Ping.
//  2. HTTPClient, the JSON-over-HTTP implementation of the record store and
//     reference data calls.
//  3. HealthChecker, a gRPC health probe used by the online watcher.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrRejected. A rejection
// carries the server's message and field list as *RejectedError.
//
// All operations accept context.Context and honor cancellation.
package client
