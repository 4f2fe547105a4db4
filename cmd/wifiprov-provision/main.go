package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning/mdns"
)

var flagCode = &cli.StringFlag{
	Name:     "code",
	Usage:    "Onboarding code printed on the device (WIFIPROV:<version>:<discriminator>:<pop>)",
	EnvVars:  []string{"WIFIPROV_CODE"},
	Required: true,
}

var flagSSID = &cli.StringFlag{
	Name:     "ssid",
	Usage:    "Network the device should join",
	EnvVars:  []string{"WIFIPROV_SSID"},
	Required: true,
}

var flagSecret = &cli.StringFlag{
	Name:    "secret",
	Usage:   "Network passphrase",
	EnvVars: []string{"WIFIPROV_SECRET"},
}

var flagInterface = &cli.StringFlag{
	Name:  "iface",
	Usage: "Interface to announce on (default: all)",
}

var flagDuration = &cli.DurationFlag{
	Name:  "duration",
	Value: 2 * time.Minute,
	Usage: "Withdraw the announcement after this long (0 = until interrupted)",
}

var flagDiscriminator = &cli.IntFlag{
	Name:  "discriminator",
	Value: -1,
	Usage: "Discriminator for the generated code (-1 = random)",
}

func main() {
	app := &cli.App{
		Name:  "wifiprov-provision",
		Usage: "Deliver Wi-Fi credentials to a device in provisioning mode",
		Commands: []*cli.Command{
			{
				Name:  "announce",
				Usage: "Seal a credential for one device and announce it",
				Flags: []cli.Flag{flagCode, flagSSID, flagSecret, flagInterface, flagDuration},
				Action: func(cCtx *cli.Context) error {
					code, err := mdns.ParseOnboardingCode(cCtx.String(flagCode.Name))
					if err != nil {
						return fmt.Errorf("invalid onboarding code: %w", err)
					}
					cred, err := credential.New(cCtx.String(flagSSID.Name), cCtx.String(flagSecret.Name))
					if err != nil {
						return err
					}

					cfg := mdns.DefaultAdvertiserConfig()
					cfg.Interface = cCtx.String(flagInterface.Name)
					adv, err := mdns.NewAdvertiser(cfg, code)
					if err != nil {
						return err
					}
					if err := adv.Announce(cred); err != nil {
						return err
					}
					defer adv.Stop()

					log.Printf("Announcing credential for %q to %s", cred.SSID, mdns.InstanceName(code.Discriminator))
					return wait(cCtx.Context, cCtx.Duration(flagDuration.Name))
				},
			},
			{
				Name:  "code",
				Usage: "Generate a fresh onboarding code",
				Flags: []cli.Flag{flagDiscriminator},
				Action: func(cCtx *cli.Context) error {
					disc, err := discriminator(cCtx.Int(flagDiscriminator.Name))
					if err != nil {
						return err
					}
					pop, err := mdns.GeneratePoP()
					if err != nil {
						return err
					}
					code, err := mdns.NewOnboardingCode(disc, pop)
					if err != nil {
						return err
					}
					fmt.Println(code)
					return nil
				},
			},
			{
				Name:      "inspect",
				Usage:     "Decode an onboarding code",
				ArgsUsage: "<code>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return cli.Exit("expected one onboarding code", 1)
					}
					code, err := mdns.ParseOnboardingCode(cCtx.Args().First())
					if err != nil {
						return err
					}
					fmt.Printf("Version:       %d\n", code.Version)
					fmt.Printf("Discriminator: %d\n", code.Discriminator)
					fmt.Printf("PoP:           %s\n", code.PoP)
					fmt.Printf("Instance:      %s\n", mdns.InstanceName(code.Discriminator))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// discriminator returns d, or a random discriminator when d is negative.
func discriminator(d int) (uint16, error) {
	if d < 0 {
		return mdns.GenerateDiscriminator()
	}
	if d > mdns.MaxDiscriminator {
		return 0, mdns.ErrInvalidDiscriminator
	}
	return uint16(d), nil
}

// wait blocks until the process is interrupted or, when d is positive,
// until d has elapsed.
func wait(ctx context.Context, d time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	<-ctx.Done()
	log.Println("Withdrawing announcement")
	return nil
}
