//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_callContextCarriesActor verifies the actor travels as outgoing metadata.
func TestClient_callContextCarriesActor(t *testing.T) {
	t.Parallel()

	c := new(Client)
	WithActor(&domain.Actor{Hostname: "hall-pi", Username: "sam"})(c)

	ctx, cancel := c.callContext(context.Background())
	defer cancel()

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	require.Equal(t, []string{"hall-pi"}, md.Get(api.MetadataHostname))
	require.Equal(t, []string{"sam"}, md.Get(api.MetadataUsername))
}

// TestClient_RequiresSensorID asserts that empty sensor ids are rejected locally.
func TestClient_RequiresSensorID(t *testing.T) {
	t.Parallel()

	c := new(Client)

	require.ErrorIs(t, c.RemoveSensor(context.Background(), ""), errSensorRequired)

	_, err := c.ChangeSensorActivation(context.Background(), "", true)
	require.ErrorIs(t, err, errSensorRequired)
}
