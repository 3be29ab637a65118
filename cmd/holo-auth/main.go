package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/ruteri/holo-auth-client/api/clients"
	"github.com/ruteri/holo-auth-client/cmd/flags"
	"github.com/ruteri/holo-auth-client/common"
	"github.com/ruteri/holo-auth-client/instanceutils"
	"github.com/ruteri/holo-auth-client/overlay"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

const usage string = `Holoport onboarding tool
Will exit once the host is onboarded:
* Holochain agent key agrees with the device bundle
* Membrane proof is obtained and written to a file
* ZeroTier identity is registered with the auth server (when ZT_STATUS=ACCESS_DENIED)`

func main() {
	settingsFlags := slices.Concat(flags.OnboardingFlags, flags.CommonFlags)

	app := &cli.App{
		Name:    "holo-auth",
		Usage:   usage,
		Version: common.Version,
		Flags:   append([]cli.Flag{flags.ConfigFileFlag}, settingsFlags...),
		Before:  altsrc.InitInputSourceWithContext(settingsFlags, altsrc.NewYamlSourceFromFlagFunc(flags.ConfigFileFlag.Name)),
		Action:  runOnboarding,
		Commands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Only check that the holochain agent key agrees with the device bundle",
				Action: runValidate,
			},
			{
				Name:   "legacy-challenge",
				Usage:  "Confirm the admin email of a host on hpos-config v1",
				Action: runLegacyChallenge,
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if err := app.RunContext(ctx, os.Args); err != nil {
		cancel()
		log.Fatal(err)
	}
	cancel()
}

func runOnboarding(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	settings, err := flags.ResolveSettings(cCtx)
	if err != nil {
		return err
	}

	httpClient := clients.NewHTTPClient(settings.HTTPTimeout)
	onboarder := instanceutils.NewOnboarder(settings, httpClient, logger)
	if err := onboarder.Run(cCtx.Context); err != nil {
		logger.Error("Onboarding failed", "err", err, slog.String("state", onboarder.State().String()))
		return err
	}
	return nil
}

func runValidate(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	settings, err := flags.ResolveSettings(cCtx)
	if err != nil {
		return err
	}
	return instanceutils.NewKeyConsistencyValidator(settings, logger).Validate(cCtx.Context)
}

func runLegacyChallenge(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	settings, err := flags.ResolveSettings(cCtx)
	if err != nil {
		return err
	}

	challenge := &instanceutils.LegacyChallenge{
		Identity: &instanceutils.ConfigIdentityLoader{
			Path:       settings.HposConfigPath,
			Passphrase: settings.DeviceBundlePassword,
		},
		Overlay: &overlay.FileSource{Path: settings.ZerotierIdentityPath},
		Client: &clients.ChallengeClient{
			ServerAddr: settings.AuthServerURL,
			HTTPClient: clients.NewHTTPClient(settings.HTTPTimeout),
			Log:        logger,
		},
		Log: logger,
	}
	return challenge.Run(cCtx.Context)
}
