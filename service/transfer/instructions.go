package transfer

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// createIdempotentDiscriminator selects the CreateIdempotent variant of the
// associated token account program: create the account only if absent,
// succeed harmlessly if it already exists.
const createIdempotentDiscriminator = byte(1)

// BuildNativeTransfer returns the single-instruction set moving lamports from
// sender to recipient.
func BuildNativeTransfer(lamports uint64, from, to solana.PublicKey) []solana.Instruction {
	return []solana.Instruction{
		system.NewTransferInstruction(lamports, from, to).Build(),
	}
}

// BuildTokenTransfer returns the two-instruction set for a token transfer:
// an idempotent create of the recipient's associated token account (payer =
// sender, so creation rides the same fee-sponsorship path as the transfer)
// followed by the transfer itself. Creation must precede the transfer.
func BuildTokenTransfer(baseUnits uint64, decimals uint8, mint, from, to solana.PublicKey) ([]solana.Instruction, error) {
	source, _, err := solana.FindAssociatedTokenAddress(from, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive sender token account: %w", err)
	}

	destination, _, err := solana.FindAssociatedTokenAddress(to, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive recipient token account: %w", err)
	}

	create := newCreateIdempotentInstruction(from, to, mint, destination)
	xfer := token.NewTransferCheckedInstruction(
		baseUnits,
		decimals,
		source,
		mint,
		destination,
		from,
		nil,
	).Build()

	return []solana.Instruction{create, xfer}, nil
}

// newCreateIdempotentInstruction builds the CreateIdempotent variant of the
// associated token account program. The account layout matches Create; only
// the one-byte discriminator differs.
func newCreateIdempotentInstruction(payer, owner, mint, ata solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(ata).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(solana.TokenProgramID),
		},
		[]byte{createIdempotentDiscriminator},
	)
}
