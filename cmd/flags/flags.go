package flags

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ruteri/holo-auth-client/common"
	"github.com/ruteri/holo-auth-client/instanceutils"
	"github.com/ruteri/holo-auth-client/overlay"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

// SetupLogger builds the process logger from the log-* flags.
func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ResolveSettings collects every onboarding option into one validated
// structure.
func ResolveSettings(cCtx *cli.Context) (*instanceutils.Settings, error) {
	maxAttempts := cCtx.Int(RetryMaxAttemptsFlag.Name)
	if maxAttempts < 0 {
		return nil, fmt.Errorf("%s must not be negative", RetryMaxAttemptsFlag.Name)
	}

	s := &instanceutils.Settings{
		HposConfigPath:       cCtx.String(HposConfigPathFlag.Name),
		DeviceBundlePassword: cCtx.String(DeviceBundlePasswordFlag.Name),
		AuthServerURL:        cCtx.String(AuthServerURLFlag.Name),
		MemProofServerURL:    cCtx.String(MemProofServerURLFlag.Name),
		MemProofPath:         cCtx.String(MemProofPathFlag.Name),
		ZtNotificationsPath:  cCtx.String(ZtNotificationsPathFlag.Name),
		PubkeyPath:           cCtx.String(PubkeyPathFlag.Name),
		ValidationConfigGlob: cCtx.String(ValidationConfigGlobFlag.Name),
		HoloNetwork:          cCtx.String(HoloNetworkFlag.Name),
		ZtStatus:             cCtx.String(ZtStatusFlag.Name),
		ZerotierIdentityPath: cCtx.String(ZerotierIdentityPathFlag.Name),
		HoloportDomain:       cCtx.String(HoloportDomainFlag.Name),
		HoloportDomainDev:    cCtx.String(HoloportDomainDevFlag.Name),
		HTTPTimeout:          cCtx.Duration(HTTPTimeoutFlag.Name),
		Retry: instanceutils.RetryConfig{
			InitialInterval:     cCtx.Duration(RetryInitialIntervalFlag.Name),
			MaxInterval:         cCtx.Duration(RetryMaxIntervalFlag.Name),
			RandomizationFactor: cCtx.Float64(RetryJitterFlag.Name),
			MaxAttempts:         uint64(maxAttempts),
			MaxElapsedTime:      cCtx.Duration(RetryMaxElapsedFlag.Name),
		},
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

var ConfigFileFlag = &cli.StringFlag{
	Name:    "config",
	Usage:   "optional YAML file providing values for any of the flags below",
	EnvVars: []string{"HOLO_AUTH_CONFIG"},
}

var HposConfigPathFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "hpos-config-path",
	Usage:   "path to the hpos-config device bundle",
	EnvVars: []string{"HPOS_CONFIG_PATH"},
})

var DeviceBundlePasswordFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "device-bundle-password",
	Usage:   "passphrase unlocking the v2 device bundle",
	EnvVars: []string{"DEVICE_BUNDLE_PASSWORD", "DEVICE_SEED_DEFAULT_PASSWORD"},
})

var AuthServerURLFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "auth-server-url",
	Value:   "https://auth-server.holo.host",
	Usage:   "auth server base URL (zt_registration, notify, challenge)",
	EnvVars: []string{"AUTH_SERVER_URL"},
})

var MemProofServerURLFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "mem-proof-server-url",
	Value:   "https://test-membrane-proof-service.holo.host",
	Usage:   "membrane-proof service base URL",
	EnvVars: []string{"MEM_PROOF_SERVER_URL"},
})

var MemProofPathFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "mem-proof-path",
	Value:   "/var/lib/configure-holochain/mem-proof",
	Usage:   "membrane proof file. Registration is skipped when it exists",
	EnvVars: []string{"MEM_PROOF_PATH"},
})

var ZtNotificationsPathFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "zt-notifications-path",
	Value:   "/var/lib/holo-auth/zt-auth-done-notification",
	Usage:   "marker written once zerotier registration is acknowledged",
	EnvVars: []string{"ZT_NOTIFICATIONS_PATH"},
})

var PubkeyPathFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "pubkey-path",
	Usage:   "agent key already in use by the local conductor. Key validation is skipped if unset or absent",
	EnvVars: []string{"PUBKEY_PATH"},
})

var ValidationConfigGlobFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "validation-config-glob",
	Value:   "/run/hpos-init/hp-*.json",
	Usage:   "device bundle used for key validation. Falls back to hpos-config-path when nothing matches",
	EnvVars: []string{"VALIDATION_CONFIG_GLOB"},
})

var HoloNetworkFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "holo-network",
	Usage:   "holo network name, devNet disables key validation and selects the dev holoport domain",
	EnvVars: []string{"HOLO_NETWORK"},
})

var ZtStatusFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "zt-status",
	Usage:   "zerotier network status, ACCESS_DENIED enables zerotier registration",
	EnvVars: []string{"ZT_STATUS"},
})

var ZerotierIdentityPathFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "zerotier-identity-path",
	Value:   overlay.DefaultIdentityPath,
	Usage:   "zerotier identity.secret, read on every registration attempt",
	EnvVars: []string{"ZEROTIER_IDENTITY_PATH"},
})

var HoloportDomainFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "holoport-domain",
	Value:   "holohost.net",
	Usage:   "holoport URL suffix",
	EnvVars: []string{"HOLOPORT_DOMAIN"},
})

var HoloportDomainDevFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "holoport-domain-dev",
	Value:   "holohost.dev",
	Usage:   "holoport URL suffix on devNet",
	EnvVars: []string{"HOLOPORT_DOMAIN_DEV"},
})

var HTTPTimeoutFlag = altsrc.NewDurationFlag(&cli.DurationFlag{
	Name:    "http-timeout",
	Value:   instanceutils.DefaultHTTPTimeout,
	Usage:   "timeout of a single request to an authority",
	EnvVars: []string{"HTTP_TIMEOUT"},
})

var RetryInitialIntervalFlag = altsrc.NewDurationFlag(&cli.DurationFlag{
	Name:    "retry-initial-interval",
	Value:   instanceutils.DefaultRetryConfig().InitialInterval,
	Usage:   "delay after the first failed zerotier registration, doubled after every failure",
	EnvVars: []string{"RETRY_INITIAL_INTERVAL"},
})

var RetryMaxIntervalFlag = altsrc.NewDurationFlag(&cli.DurationFlag{
	Name:    "retry-max-interval",
	Usage:   "cap on the retry delay, 0 for none",
	EnvVars: []string{"RETRY_MAX_INTERVAL"},
})

var RetryJitterFlag = altsrc.NewFloat64Flag(&cli.Float64Flag{
	Name:    "retry-jitter",
	Usage:   "randomization factor applied to retry delays, in [0, 1)",
	EnvVars: []string{"RETRY_JITTER"},
})

var RetryMaxAttemptsFlag = altsrc.NewIntFlag(&cli.IntFlag{
	Name:    "retry-max-attempts",
	Usage:   "give up after this many zerotier registration attempts, 0 for unlimited",
	EnvVars: []string{"RETRY_MAX_ATTEMPTS"},
})

var RetryMaxElapsedFlag = altsrc.NewDurationFlag(&cli.DurationFlag{
	Name:    "retry-max-elapsed",
	Usage:   "give up on zerotier registration after this long, 0 for unlimited",
	EnvVars: []string{"RETRY_MAX_ELAPSED"},
})

var LogJsonFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:    "log-json",
	Value:   false,
	Usage:   "log in JSON format",
	EnvVars: []string{"LOG_JSON"},
})
var LogDebugFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:    "log-debug",
	Value:   false,
	Usage:   "log debug messages",
	EnvVars: []string{"LOG_DEBUG"},
})
var LogUidFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:    "log-uid",
	Value:   false,
	Usage:   "generate a uuid and add to all log messages",
	EnvVars: []string{"LOG_UID"},
})

var LogServiceFlagFn = func(service string) cli.Flag {
	return altsrc.NewStringFlag(&cli.StringFlag{
		Name:    "log-service",
		Value:   service,
		Usage:   "add 'service' tag to logs",
		EnvVars: []string{"LOG_SERVICE"},
	})
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlagFn("holo-auth"),
}

var OnboardingFlags = []cli.Flag{
	HposConfigPathFlag,
	DeviceBundlePasswordFlag,
	AuthServerURLFlag,
	MemProofServerURLFlag,
	MemProofPathFlag,
	ZtNotificationsPathFlag,
	PubkeyPathFlag,
	ValidationConfigGlobFlag,
	HoloNetworkFlag,
	ZtStatusFlag,
	ZerotierIdentityPathFlag,
	HoloportDomainFlag,
	HoloportDomainDevFlag,
	HTTPTimeoutFlag,
	RetryInitialIntervalFlag,
	RetryMaxIntervalFlag,
	RetryJitterFlag,
	RetryMaxAttemptsFlag,
	RetryMaxElapsedFlag,
}
