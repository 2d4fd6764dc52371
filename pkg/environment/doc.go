// Package environment resolves the application execution mode
// (development, staging, production) from conventional environment
// variables and carries it on a context.
//
// The mode gates security policy elsewhere in the module: production
// enforces TLS and certificate validation on every connection, while
// development honors the caller's explicit choices for local work.
package environment
