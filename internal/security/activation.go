package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// ActivationCodeLength is the number of digits in an account activation code.
const ActivationCodeLength = 6

// CodeGenerator produces account activation codes.
type CodeGenerator interface {
	Generate() (string, error)
}

type digitCodeGenerator struct {
	length int
}

func NewCodeGenerator() CodeGenerator {
	return &digitCodeGenerator{length: ActivationCodeLength}
}

// Generate returns a code of uniformly random decimal digits.
func (g *digitCodeGenerator) Generate() (string, error) {
	code := make([]byte, g.length)
	ten := big.NewInt(10)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate activation code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
