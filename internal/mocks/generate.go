// Package mocks provides gomock implementations of the ports interfaces.
//
// The mocks are generated with go.uber.org/mock (mockgen) and give tests a
// fluent API for setting expectations on storage, token and verifier ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	storage := mocks.NewMockClientStorage(ctrl)
//	storage.EXPECT().GetItem(gomock.Any(), "dev-1", "authToken").Return("", false, nil)
package mocks

// Device storage and session records:
// GetItem, SetItem, RemoveItem / Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=storage_mock.go github.com/viveconecta/admin-ui/internal/ports ClientStorage,SessionStore

// Authentication backends:
// Authenticate, Resolve / Issue, Parse
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_mock.go github.com/viveconecta/admin-ui/internal/ports CredentialVerifier,TokenCodec

// Directory listing for the workers page:
// List, Count
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_mock.go github.com/viveconecta/admin-ui/internal/ports UserDirectory
