package ports_test

import (
	"testing"

	"github.com/target/cinema-ui/internal/apiclient"
	"github.com/target/cinema-ui/internal/mocks"
	mockauth "github.com/target/cinema-ui/internal/mocks/auth"
	"github.com/target/cinema-ui/internal/ports"
)

// This test only verifies that our implementations and mocks conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthAPI = (*apiclient.Client)(nil)
	var _ ports.CatalogAPI = (*apiclient.Client)(nil)
	var _ ports.AuthAPI = (*mocks.MockAuthAPI)(nil)
	var _ ports.CatalogAPI = (*mocks.MockCatalogAPI)(nil)
	var _ ports.AuthAPI = (*mockauth.FakeAuthAPI)(nil)
	var _ ports.SessionStore = (*mockauth.MemorySessionStore)(nil)
}
