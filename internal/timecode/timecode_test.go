package timecode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramesToMicroseconds(t *testing.T) {
	tests := []struct {
		frame Frame
		want  int64
	}{
		{0, 0},
		{1, 33367},
		{2, 66733},
		{30, 1_001_000},
		{150, 5_005_000},
		{334, 11_144_467},
		{1800, 60_060_000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FramesToMicroseconds(tt.frame), "frame %d", tt.frame)
	}
}

func TestMicrosecondsToFramesRounds(t *testing.T) {
	assert.Equal(t, Frame(0), MicrosecondsToFrames(16_683))
	assert.Equal(t, Frame(1), MicrosecondsToFrames(16_684))
	assert.Equal(t, Frame(150), MicrosecondsToFrames(5_005_000))
	assert.Equal(t, Frame(150), MicrosecondsToFrames(5_000_000))
	assert.Equal(t, Frame(30), MicrosecondsToFrames(1_000_000))
}

func TestInverseLaw(t *testing.T) {
	for f := Frame(0); f < 200_000; f += 7 {
		us := FramesToMicroseconds(f)
		require.Equal(t, f, MicrosecondsToFrames(us), "frame %d", f)
	}
	// ten hours out
	for f := Frame(1_078_000); f < 1_080_000; f++ {
		require.Equal(t, f, MicrosecondsToFrames(FramesToMicroseconds(f)))
	}
}

func TestFromFrameDropFrame(t *testing.T) {
	tests := []struct {
		frame Frame
		want  string
	}{
		{0, "00:00:00:00"},
		{29, "00:00:00:29"},
		{1799, "00:00:59:29"},
		{1800, "00:01:00:02"},
		{1801, "00:01:00:03"},
		{3597, "00:01:59:29"},
		{3598, "00:02:00:02"},
		{17981, "00:09:59:29"},
		{17982, "00:10:00:00"},
		{17983, "00:10:00:01"},
		{19782, "00:11:00:02"},
		{107892, "01:00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			tc := FromFrame(tt.frame)
			assert.Equal(t, tt.want, tc.String())
			assert.Equal(t, tt.frame, tc.Frame())
		})
	}
}

func TestDroppedNumbersNeverPrinted(t *testing.T) {
	for f := Frame(0); f < 3*framesPerTenMinutes; f++ {
		tc := FromFrame(f)
		if tc.Minutes%10 != 0 && tc.Seconds == 0 {
			require.GreaterOrEqual(t, tc.Frames, 2, "frame %d printed as %s", f, tc)
		}
		require.NoError(t, tc.Validate())
		require.Equal(t, f, tc.Frame())
	}
}

func TestParse(t *testing.T) {
	tc, err := Parse("01:02:03:04")
	require.NoError(t, err)
	assert.Equal(t, Timecode{Hours: 1, Minutes: 2, Seconds: 3, Frames: 4}, tc)

	tc, err = Parse("00:00:10;15")
	require.NoError(t, err)
	assert.Equal(t, Timecode{Seconds: 10, Frames: 15}, tc)

	frame, err := ParseFrame("00:01:00:02")
	require.NoError(t, err)
	assert.Equal(t, Frame(1800), frame)
}

func TestParseRejectsMalformed(t *testing.T) {
	inputs := []string{
		"",
		"00:00:00",
		"0:00:00:00",
		"00:00:00:0x",
		"00:00:60:00",
		"00:60:00:00",
		"00:00:00:30",
		"00:01:00:00",
		"00:01:00:01",
		"00:00:00:00:00",
		"00:00:+1:00",
		"-1:00:00:00",
		"00:00:00: 1",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTimecode))
		})
	}
}

func TestTenthMinuteKeepsFrameZero(t *testing.T) {
	frame, err := ParseFrame("00:10:00:00")
	require.NoError(t, err)
	assert.Equal(t, Frame(17982), frame)
}
