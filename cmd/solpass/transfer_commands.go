package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/solpass/walletd/client"
)

func transferCommands() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer commands",
		Subcommands: []*cli.Command{
			transferSendCommand(),
			transferListCommand(),
		},
	}
}

func transferSendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send SOL or USDC to a recipient",
		ArgsUsage: "RECIPIENT_ADDRESS",
		Flags: []cli.Flag{
			serverFlag(),
			filterFlag(),
			&cli.StringFlag{
				Name:     "asset",
				Aliases:  []string{"a"},
				Value:    "SOL",
				Usage:    "Asset to send (SOL or USDC)",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "amount",
				Aliases:  []string{"m"},
				Usage:    "Decimal amount to send (e.g. 1.5)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("recipient address is required")
			}

			cl := client.NewClient(c.String("server"), nil, commandLogger())

			transfer, err := cl.SubmitTransfer(context.Background(), client.TransferRequest{
				Asset:     strings.ToUpper(c.String("asset")),
				Amount:    c.String("amount"),
				Recipient: c.Args().Get(0),
			})
			if err != nil {
				return fmt.Errorf("failed to submit transfer: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(transfer, c.String("filter"))
			}

			fmt.Printf("✓ Transfer submitted\n")
			fmt.Printf("  Signature: %s\n", transfer.Signature)
			fmt.Printf("  Explorer:  %s\n", transfer.ExplorerURL)
			return nil
		},
	}
}

func transferListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls", "history"},
		Usage:   "Show the recent transfer history",
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

			list, err := cl.ListTransfers(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list transfers: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(list, c.String("filter"))
			}

			if len(list.Transfers) == 0 {
				fmt.Println("No transfers yet")
				return nil
			}
			for _, transfer := range list.Transfers {
				fmt.Printf("%s  %-4s %-12s %s\n",
					transfer.Timestamp.Format("2006-01-02 15:04:05"),
					transfer.Asset,
					transfer.Amount,
					transfer.Signature,
				)
			}
			if list.Error != "" {
				fmt.Printf("\nLast submission error: %s\n", list.Error)
			}
			return nil
		},
	}
}
