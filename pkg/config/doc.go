// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each configuration type is parsed once per process and cached, so
// repeated loads across warm serverless invocations are cheap and
// consistent.
package config
