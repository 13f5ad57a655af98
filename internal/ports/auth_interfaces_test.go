package ports_test

import (
	"testing"

	mocks "github.com/target/stalkcentral/internal/mocks/auth"
	"github.com/target/stalkcentral/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthBackend = (*mocks.FakeBackend)(nil)
	var _ ports.Window = (*mocks.RecordingWindow)(nil)
	var _ ports.AuthorizationController = (*mocks.ManualController)(nil)
	var _ ports.AuthorizationDelegate = (*mocks.RecordingDelegate)(nil)
	var _ ports.PresentationAnchorProvider = mocks.StaticAnchor{}
}
