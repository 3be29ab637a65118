package clients

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ruteri/holo-auth-client/interfaces"
	"github.com/ruteri/holo-auth-client/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIdentitySource struct {
	identity *overlay.Identity
	err      error
	reads    int
}

func (s *staticIdentitySource) ReadIdentity() (interfaces.OverlayIdentity, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func newZtClient(t *testing.T, serverAddr string, source interfaces.OverlayIdentitySource) *ZtRegistrationClient {
	return &ZtRegistrationClient{
		ServerAddr:     serverAddr,
		HoloportDomain: "holohost.dev",
		HTTPClient:     NewHTTPClient(5 * time.Second),
		Identity:       source,
		Marker:         newMarker(t, "zt-auth-done-notification"),
		Log:            testLogger(),
	}
}

func TestZtRegistrationClient_Success(t *testing.T) {
	identity, err := overlay.GenerateIdentity()
	require.NoError(t, err)

	srv := newAuthServer(t)
	srv.ZtPublicKey = identity.PublicKey()
	cfg, key := testV2Config(t)

	client := newZtClient(t, srv.URL, &staticIdentitySource{identity: identity})
	require.NoError(t, client.Attempt(context.Background(), cfg, key))
	assert.True(t, markerExists(t, client.Marker))

	reqs := srv.ZtRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, testEmail, reqs[0].Data.Email)
	assert.Equal(t, key.Base36ID(), reqs[0].Data.HolochainAgentID)
	assert.Equal(t, identity.Address(), reqs[0].Data.ZerotierAddress)
	assert.Equal(t, "https://"+key.Base36ID()+".holohost.dev", reqs[0].Data.HoloportURL)

	data, err := json.Marshal(reqs[0].Data)
	require.NoError(t, err)
	sig, err := base64.StdEncoding.DecodeString(reqs[0].Signature)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(identity.PublicKey(), data, sig))

	assert.EqualValues(t, 0, srv.NotifyCalls.Load())
}

func TestZtRegistrationClient_Rejected(t *testing.T) {
	identity, err := overlay.GenerateIdentity()
	require.NoError(t, err)

	srv := newAuthServer(t)
	srv.FailZtRegistrations(1)
	cfg, key := testV2Config(t)

	client := newZtClient(t, srv.URL, &staticIdentitySource{identity: identity})
	err = client.Attempt(context.Background(), cfg, key)
	require.ErrorIs(t, err, interfaces.ErrZtRegistration)
	assert.Contains(t, err.Error(), "503")
	assert.False(t, markerExists(t, client.Marker))
	assert.EqualValues(t, 0, srv.NotifyCalls.Load(), "overlay failures never notify")

	// The next attempt goes through
	require.NoError(t, client.Attempt(context.Background(), cfg, key))
	assert.True(t, markerExists(t, client.Marker))
}

func TestZtRegistrationClient_WrongSignature(t *testing.T) {
	identity, err := overlay.GenerateIdentity()
	require.NoError(t, err)
	other, err := overlay.GenerateIdentity()
	require.NoError(t, err)

	srv := newAuthServer(t)
	srv.ZtPublicKey = other.PublicKey()
	cfg, key := testV2Config(t)

	client := newZtClient(t, srv.URL, &staticIdentitySource{identity: identity})
	err = client.Attempt(context.Background(), cfg, key)
	require.ErrorIs(t, err, interfaces.ErrZtRegistration)
	assert.Contains(t, err.Error(), "401")
}

func TestZtRegistrationClient_ConfigVersion(t *testing.T) {
	srv := newAuthServer(t)
	source := &staticIdentitySource{}
	cfg, key := testV1Config(t)

	client := newZtClient(t, srv.URL, source)
	err := client.Attempt(context.Background(), cfg, key)
	require.ErrorIs(t, err, interfaces.ErrConfigVersion)

	assert.Equal(t, 0, source.reads)
	assert.EqualValues(t, 0, srv.ZtCalls.Load())
	assert.EqualValues(t, 0, srv.NotifyCalls.Load())
}

func TestZtRegistrationClient_IdentityReadFresh(t *testing.T) {
	srv := newAuthServer(t)
	source := &staticIdentitySource{err: errors.New("identity.secret missing")}
	cfg, key := testV2Config(t)

	client := newZtClient(t, srv.URL, source)
	err := client.Attempt(context.Background(), cfg, key)
	require.ErrorIs(t, err, interfaces.ErrZtRegistration)
	assert.EqualValues(t, 0, srv.ZtCalls.Load())

	identity, err := overlay.GenerateIdentity()
	require.NoError(t, err)
	source.err = nil
	source.identity = identity

	require.NoError(t, client.Attempt(context.Background(), cfg, key))
	assert.Equal(t, 2, source.reads)
}

func TestZtRegistrationClient_IdentityWithoutPrivateKey(t *testing.T) {
	identity, err := overlay.GenerateIdentity()
	require.NoError(t, err)
	secret := identity.MarshalSecret()
	public, err := overlay.ParseIdentity(secret[:strings.LastIndex(secret, ":")])
	require.NoError(t, err)

	srv := newAuthServer(t)
	cfg, key := testV2Config(t)

	client := newZtClient(t, srv.URL, &staticIdentitySource{identity: public})
	err = client.Attempt(context.Background(), cfg, key)
	require.ErrorIs(t, err, interfaces.ErrZtRegistration)
	require.ErrorIs(t, err, overlay.ErrNoPrivateKey)
	assert.EqualValues(t, 0, srv.ZtCalls.Load())
	assert.False(t, markerExists(t, client.Marker))
}

func TestHoloportURL(t *testing.T) {
	_, key := testV2Config(t)
	assert.Equal(t, "https://"+key.Base36ID()+".holohost.net", HoloportURL(key, "holohost.net"))
}
