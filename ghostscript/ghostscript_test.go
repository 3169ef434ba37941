package ghostscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailableFalseForUnknownBinary(t *testing.T) {
	old := BinaryName
	BinaryName = "definitely-not-a-real-binary-xyz"
	defer func() { BinaryName = old }()

	assert.False(t, Available())
}

func TestRepairFailsWhenBinaryMissing(t *testing.T) {
	old := BinaryName
	BinaryName = "definitely-not-a-real-binary-xyz"
	defer func() { BinaryName = old }()

	err := Repair("in.pdf", "out.pdf")
	assert.Error(t, err)
}
