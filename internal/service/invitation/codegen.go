package invitation

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/groupmeal/groupmeal-backend/internal/domain/invitation"
)

const (
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 8
	// codeSpace is 36^8, the number of distinct 8 character codes
	codeSpace uint64 = 2821109907456
	// codeMultiplier is coprime to 36 so n -> n*m+c is a bijection on [0, codeSpace)
	codeMultiplier uint64 = 1500450271
	codeOffset     uint64 = 917413513
)

// SequenceCodeGenerator maps a database sequence through a fixed permutation of the code space.
// Distinct sequence values always yield distinct codes, and consecutive values do not look consecutive.
type SequenceCodeGenerator struct {
	next func(ctx context.Context) (int64, error)
}

func NewSequenceCodeGenerator(repo invitation.InvitationRepository) *SequenceCodeGenerator {
	return &SequenceCodeGenerator{next: repo.NextCodeSequence}
}

func (g *SequenceCodeGenerator) Next(ctx context.Context) (string, error) {
	n, err := g.next(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read code sequence: %w", err)
	}
	if n < 0 {
		return "", fmt.Errorf("negative code sequence value %d", n)
	}
	return encodeCode(permute(uint64(n) % codeSpace)), nil
}

func permute(n uint64) uint64 {
	hi, lo := bits.Mul64(n, codeMultiplier)
	_, rem := bits.Div64(hi, lo, codeSpace)
	return (rem + codeOffset) % codeSpace
}

func encodeCode(v uint64) string {
	buf := make([]byte, codeLength)
	for i := codeLength - 1; i >= 0; i-- {
		buf[i] = codeAlphabet[v%36]
		v /= 36
	}
	return string(buf)
}

// RandomCodeGenerator samples codes uniformly from crypto/rand
type RandomCodeGenerator struct{}

func (RandomCodeGenerator) Next(_ context.Context) (string, error) {
	limit := new(big.Int).SetUint64(codeSpace)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to read random code: %w", err)
	}
	return encodeCode(n.Uint64()), nil
}
