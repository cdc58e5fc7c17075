//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run or installed on demand and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - gomock code generator for internal/mocks
//   Run: go generate ./internal/mocks (invokes go.uber.org/mock/mockgen@v0.6.0 via go run)
//   Version: v0.6.0, matching go.uber.org/mock in go.mod
//   Docs: https://github.com/uber-go/mock
//
// miniredis is a library, not a tool; tests start it in process. Set TEST_REDIS_ADDR to run
// the Redis tests against a real server instead.
