// Package connector manages MongoDB connection lifecycles for serverless
// deployments, where a warm process is reused across invocations and a
// connection opened per request would exhaust the database's connection
// limit.
//
// A Manager owns a process-wide cache of named connections. Each cached
// connection is a small state machine (connecting, connected,
// disconnecting, disconnected, error) whose transitions come from two
// sources: caller-driven operations (Connect, CloseConnection) and
// asynchronous driver events (error, disconnected, reconnected). The record
// in the cache is the single source of truth; reads always go through the
// Manager rather than copies taken earlier.
//
// Every connect attempt is gated by the security validators in
// pkg/security before any network activity. Establishment retries with a
// fixed delay up to a bounded attempt count; a terminal failure removes the
// record entirely so the next call retries fresh instead of serving a
// remembered failure.
//
// Typical serverless usage goes through the shared Default manager:
//
//	handle, err := connector.Default().QuickConnect(ctx, "default", connector.Options{})
//	if err != nil {
//		return err
//	}
//	client := handle.(*connector.MongoHandle).Client()
package connector
