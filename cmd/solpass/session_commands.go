package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/solpass/walletd/client"
)

func sessionCommands() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Passkey session commands",
		Subcommands: []*cli.Command{
			sessionConnectCommand(),
			sessionDisconnectCommand(),
			sessionStatusCommand(),
		},
	}
}

func sessionConnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Establish a passkey session",
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
			cl := client.NewClient(c.String("server"), nil, commandLogger())

			state, err := cl.Connect(context.Background())
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(state, c.String("filter"))
			}

			fmt.Printf("✓ Session connected\n")
			fmt.Printf("  Smart Wallet: %s\n", state.SmartWallet)
			if state.Session != nil {
				fmt.Printf("  Credential:   %s\n", state.Session.CredentialID)
			}
			return nil
		},
	}
}

func sessionDisconnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "End the current passkey session",
		Flags: []cli.Flag{
			serverFlag(),
		},
		Action: func(c *cli.Context) error {
			cl := client.NewClient(c.String("server"), nil, commandLogger())

			if err := cl.Disconnect(context.Background()); err != nil {
				return fmt.Errorf("failed to disconnect: %w", err)
			}

			fmt.Println("✓ Session disconnected")
			return nil
		},
	}
}

func sessionStatusCommand() *cli.Command {
	return &cli.Command{
		Name:    "status",
		Aliases: []string{"get"},
		Usage:   "Show the current session state",
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
			cl := client.NewClient(c.String("server"), nil, commandLogger())

			state, err := cl.GetSession(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(state, c.String("filter"))
			}

			if !state.Connected {
				fmt.Println("Not connected")
				return nil
			}
			fmt.Printf("Connected\n")
			fmt.Printf("  Smart Wallet: %s\n", state.SmartWallet)
			if state.Session != nil {
				fmt.Printf("  Credential:   %s\n", state.Session.CredentialID)
				if state.Session.Device != "" {
					fmt.Printf("  Device:       %s\n", state.Session.Device)
				}
			}
			return nil
		},
	}
}
