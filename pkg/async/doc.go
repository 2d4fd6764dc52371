// Package async provides a minimal generic Future for sharing the result
// of one in-flight computation between many waiters.
//
// The connection manager uses a Future per connection name as its
// establishment task: concurrent requests for the same name await the same
// Future instead of dialing twice, and individual dial attempts are bounded
// with AwaitWithTimeout.
package async
