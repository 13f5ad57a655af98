// Package mocks provides mock implementations for testing the stalkcentral auth client.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockAuthBackend(ctrl)
//	backend.EXPECT().SignOut(gomock.Any()).Return(nil)
package mocks

// Generate mock for AuthBackend interface from internal/ports package.
// This creates MockAuthBackend with methods for all AuthBackend interface methods:
// SignInAnonymously, SignInWithCredential, SignOut, AddStateListener
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_backend_mock.go github.com/target/stalkcentral/internal/ports AuthBackend

// Generate mock for SessionStore interface from internal/ports package.
// Load, Save, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/target/stalkcentral/internal/ports SessionStore

// Generate mock for AuthorizationController interface from internal/ports package.
// PerformRequest
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=authorization_controller_mock.go github.com/target/stalkcentral/internal/ports AuthorizationController

// Generate mock for Window interface from internal/ports package.
// SetRoot, PresentAuthorization, Live
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=window_mock.go github.com/target/stalkcentral/internal/ports Window
