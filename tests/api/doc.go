// Package api contains black-box tests that run against a live server.
//
// The server must already be running; the tests talk to it over HTTP and
// cover every endpoint the router exposes.
//
// Usage:
//
//	# Start the server first
//	go run cmd/server/main.go
//
//	# Then run the API tests
//	go test -tags=api ./tests/api/... -v
//
// Environment Variables:
//
//	API_BASE_URL - Base URL of the API server (default: http://localhost:8081)
//	API_KEY      - API key for authentication (default: test-api-key-for-development-only-32chars)
package api
