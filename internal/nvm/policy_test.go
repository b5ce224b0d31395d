package nvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyAllows(t *testing.T) {
	tests := []struct {
		policy Policy
		mode   CrashMode
		want   bool
	}{
		{PolicyStrict, ModeKeepAll, true},
		{PolicyStrict, ModeLoseLast, false},
		{PolicyStrict, ModeLoseAll, false},
		{PolicyLastWrite, ModeKeepAll, true},
		{PolicyLastWrite, ModeLoseLast, true},
		{PolicyLastWrite, ModeLoseAll, false},
		{PolicyDurable, ModeLoseAll, true},
		{PolicyBuffered, ModeLoseAll, true},
		{PolicyBuffered, ModeLoseLast, true},
		{Policy("bogus"), ModeKeepAll, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy)+"/"+string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Allows(tt.mode))
		})
	}
}

func TestPolicyMaxLost(t *testing.T) {
	assert.Equal(t, 0, PolicyStrict.MaxLost())
	assert.Equal(t, 1, PolicyLastWrite.MaxLost())
	assert.Negative(t, PolicyDurable.MaxLost())
	assert.Negative(t, PolicyBuffered.MaxLost())
	assert.True(t, PolicyBuffered.Buffered())
	assert.False(t, PolicyDurable.Buffered())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Last-Write ")
	require.NoError(t, err)
	assert.Equal(t, PolicyLastWrite, p)

	_, err = ParsePolicy("eventual")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict, last-write, durable, buffered")
}

func TestParseCrashMode(t *testing.T) {
	m, err := ParseCrashMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLoseAll, m)

	m, err = ParseCrashMode("keep-all")
	require.NoError(t, err)
	assert.Equal(t, ModeKeepAll, m)

	_, err = ParseCrashMode("lose-some")
	assert.Error(t, err)
}
