package simconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())
}

func TestValidateRejectsTooFewValidators(t *testing.T) {
	opts := DefaultOptions()
	opts.N = 0
	require.Error(t, opts.Validate())
}

func TestValidateRejectsNonProbabilityDelayFrac(t *testing.T) {
	opts := DefaultOptions()
	opts.DelayFrac = 1.5
	require.Error(t, opts.Validate())
}

func TestValidateRejectsUnknownAdversaryFlag(t *testing.T) {
	opts := DefaultOptions()
	opts.Adversary = FlagSet{Flag("not_a_real_flag"): {}}
	require.Error(t, opts.Validate())
}

func TestNewFlagSetRejectsUnknownFlag(t *testing.T) {
	_, err := NewFlagSet(Flag("bogus"))
	require.Error(t, err)
}
