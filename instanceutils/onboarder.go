package instanceutils

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ruteri/holo-auth-client/api/clients"
	"github.com/ruteri/holo-auth-client/interfaces"
	"github.com/ruteri/holo-auth-client/overlay"
	"github.com/ruteri/holo-auth-client/storage"
	"go.uber.org/atomic"
)

type State int32

const (
	StateValidate State = iota
	StateAwaitingRegistration
	StateAwaitingOverlayAuth
	StateDone
)

func (s State) String() string {
	switch s {
	case StateValidate:
		return "validate"
	case StateAwaitingRegistration:
		return "awaiting-registration"
	case StateAwaitingOverlayAuth:
		return "awaiting-overlay-auth"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Onboarder drives a host through key validation, membrane-proof
// registration and overlay registration, in that order. A failure in any
// phase ends the run in that phase.
type Onboarder struct {
	Validator Validator
	Identity  IdentityLoader

	Registration       interfaces.RegistrationAuthority
	RegistrationMarker *storage.MarkerFile

	// OverlayEnabled gates the overlay phase
	OverlayEnabled bool
	Overlay        interfaces.OverlayAuthority
	OverlayMarker  *storage.MarkerFile
	Retry          *RetryController

	Log *slog.Logger

	state atomic.Int32
}

// NewOnboarder wires the authority clients from settings. httpClient is
// shared by every client.
func NewOnboarder(s *Settings, httpClient *http.Client, log *slog.Logger) *Onboarder {
	notifier := &clients.NotifyClient{
		ServerAddr: s.AuthServerURL,
		HTTPClient: httpClient,
		Log:        log.With("client", "notify"),
	}

	registrationMarker := storage.NewMarkerFile(s.MemProofPath, log)
	overlayMarker := storage.NewMarkerFile(s.ZtNotificationsPath, log)

	return &Onboarder{
		Validator: NewKeyConsistencyValidator(s, log.With("component", "validator")),
		Identity: &ConfigIdentityLoader{
			Path:       s.HposConfigPath,
			Passphrase: s.DeviceBundlePassword,
		},
		Registration: &clients.RegistrationClient{
			ServerAddr: s.MemProofServerURL,
			HTTPClient: httpClient,
			Marker:     registrationMarker,
			Notifier:   notifier,
			Log:        log.With("client", "registration"),
		},
		RegistrationMarker: registrationMarker,
		OverlayEnabled:     s.OverlayEnabled(),
		Overlay: &clients.ZtRegistrationClient{
			ServerAddr:     s.AuthServerURL,
			HoloportDomain: s.HoloportSuffix(),
			HTTPClient:     httpClient,
			Identity:       &overlay.FileSource{Path: s.ZerotierIdentityPath},
			Marker:         overlayMarker,
			Log:            log.With("client", "zt-registration"),
		},
		OverlayMarker: overlayMarker,
		Retry:         NewRetryController(s.Retry, log.With("component", "retry")),
		Log:           log,
	}
}

// State reports the phase the run is in, or the phase it stopped in.
func (o *Onboarder) State() State {
	return State(o.state.Load())
}

func (o *Onboarder) transition(to State) {
	o.Log.Debug("Onboarding state change", slog.String("from", o.State().String()), slog.String("to", to.String()))
	o.state.Store(int32(to))
}

// Run performs one onboarding pass.
//
// Validation failures abort the run. Registration runs only when
// RegistrationMarker is absent and a failure ends the run. When
// OverlayEnabled, OverlayMarker is cleared and the overlay authority is
// retried until it accepts the host.
//
// Returns nil once State is StateDone.
func (o *Onboarder) Run(ctx context.Context) error {
	o.state.Store(int32(StateValidate))
	if err := o.Validator.Validate(ctx); err != nil {
		return err
	}

	cfg, key, err := o.Identity.LoadIdentity()
	if err != nil {
		return fmt.Errorf("could not load host identity: %w", err)
	}
	o.Log.Info("Loaded host identity", slog.String("version", cfg.Version().String()), slog.String("agent", key.Encoded()))

	o.transition(StateAwaitingRegistration)
	registered, err := o.RegistrationMarker.Exists()
	if err != nil {
		return fmt.Errorf("could not determine registration state: %w", err)
	}
	if registered {
		o.Log.Info("Membrane proof already present, skipping registration", slog.String("path", o.RegistrationMarker.Path()))
	} else if err := o.Registration.Register(ctx, cfg, key); err != nil {
		return err
	}

	o.transition(StateAwaitingOverlayAuth)
	if !o.OverlayEnabled {
		o.Log.Info("Overlay registration not requested")
	} else {
		if err := o.OverlayMarker.Remove(); err != nil {
			return fmt.Errorf("could not clear zt auth marker: %w", err)
		}
		err := o.Retry.RunUntilSuccess(ctx, "zt registration", func(ctx context.Context) error {
			return o.Overlay.Attempt(ctx, cfg, key)
		})
		if err != nil {
			return err
		}
	}

	o.transition(StateDone)
	o.Log.Info("Host onboarding complete")
	return nil
}
