package scc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/ccconv/internal/timecode"
)

func TestAnalyze(t *testing.T) {
	data := stream(
		"00:00:00:00\t94ae 94ae 9420 9420 9470 9470 c8e5 ecec ef80 942f 942f",
		"00:00:00:05\t942c 942c",
		"not-a-timecode\t9420",
		"00:00:01:00\t942c 942c",
	)

	report, err := Analyze(data)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []LineReport{
		{Line: 3, Frame: 0, Cost: 11, Overrun: 6},
		{Line: 5, Frame: 5, Cost: 2},
		{Line: 9, Frame: 30, Cost: 2},
	}, report.Lines)

	over := report.Overruns()
	require.Len(t, over, 1)
	assert.Equal(t, timecode.Frame(11), over[0].Done())
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := Analyze([]byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n"))
	assert.True(t, errors.Is(err, ErrMalformedHeader))

	_, err = Analyze(nil)
	assert.True(t, errors.Is(err, ErrMalformedHeader))

	_, err = Analyze([]byte(Header + "\n"))
	assert.True(t, errors.Is(err, ErrEmptyStream))
}
