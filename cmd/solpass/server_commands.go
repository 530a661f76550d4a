package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/solpass/walletd/client"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check whether the walletd service is up",
		Flags: []cli.Flag{
			serverFlag(),
		},
		Action: func(c *cli.Context) error {
			cl := client.NewClient(c.String("server"), nil, commandLogger())

			if err := cl.Health(context.Background()); err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			fmt.Println("✓ Service is healthy")
			return nil
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:      "sign",
		Usage:     "Sign an arbitrary message with the session passkey",
		ArgsUsage: "MESSAGE",
		Flags: []cli.Flag{
			serverFlag(),
			filterFlag(),
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("message is required")
			}

			cl := client.NewClient(c.String("server"), nil, commandLogger())

			signed, err := cl.SignMessage(context.Background(), []byte(c.Args().Get(0)))
			if err != nil {
				return fmt.Errorf("failed to sign message: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(signed, c.String("filter"))
			}

			fmt.Printf("✓ Message signed\n")
			fmt.Printf("  Signature: %s\n", signed.Signature)
			fmt.Printf("  Payload:   %s\n", base64.StdEncoding.EncodeToString(signed.SignedPayload))
			return nil
		},
	}
}
