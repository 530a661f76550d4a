package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/solpass/walletd/client"
)

func balanceCommands() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "Balance inspection commands",
		Subcommands: []*cli.Command{
			balanceShowCommand(),
			balanceRefreshCommand(),
		},
	}
}

func balanceShowCommand() *cli.Command {
	return &cli.Command{
		Name:    "show",
		Aliases: []string{"get"},
		Usage:   "Show the current balance snapshot",
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

			balances, err := cl.GetBalance(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get balance: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(balances, c.String("filter"))
			}

			printBalances(balances)
			return nil
		},
	}
}

func balanceRefreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Fetch fresh balances from the chain",
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

			balances, err := cl.RefreshBalance(context.Background())
			if err != nil {
				return fmt.Errorf("failed to refresh balance: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(balances, c.String("filter"))
			}

			printBalances(balances)
			return nil
		},
	}
}

func printBalances(balances *client.Balances) {
	if balances.Err != "" {
		fmt.Printf("! Last fetch failed: %s\n", balances.Err)
	}
	if balances.Native == nil && balances.Token == nil {
		fmt.Println("Balances unknown (no session, or fetch pending)")
		return
	}
	if balances.Native != nil {
		fmt.Printf("  SOL:  %.9f\n", *balances.Native)
	}
	if balances.Token != nil {
		fmt.Printf("  USDC: %.6f\n", *balances.Token)
	}
}
