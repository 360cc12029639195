// Package tests holds shared test fixtures for the mail routing service:
// testify mocks under mocks/, black-box API tests under api/, and
// container-backed integration and e2e suites.
package tests

import (
	// Pinned so the test-only tooling survives go mod tidy
	_ "github.com/DATA-DOG/go-sqlmock"
	_ "github.com/stretchr/testify/assert"
	_ "github.com/stretchr/testify/mock"
	_ "github.com/stretchr/testify/require"
	_ "github.com/testcontainers/testcontainers-go"
)
