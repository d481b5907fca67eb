package apu

import (
	"encoding/binary"
	"io"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Output streams an APU's mixed samples to the host audio device through
// ebiten's audio package. The teacher only used ebiten for video; its APU
// filled a sample buffer with nowhere to drain it. Output is the sink.
type Output struct {
	apu     *APU
	context *audio.Context
	player  *audio.Player
	reader  *sampleReader
}

// sampleReader adapts the APU's pull-based GetSamples() into the
// io.Reader ebiten's streaming player consumes: 16-bit signed PCM,
// stereo, little-endian, with the APU's mono signal duplicated across
// both channels.
type sampleReader struct {
	apu      *APU
	overflow []byte
}

func (r *sampleReader) Read(p []byte) (int, error) {
	n := 0
	if len(r.overflow) > 0 {
		n = copy(p, r.overflow)
		r.overflow = r.overflow[n:]
		if n == len(p) {
			return n, nil
		}
	}

	samples := r.apu.GetSamples()
	buf := make([]byte, 0, len(samples)*4)
	for _, s := range samples {
		v := int16(clampSample(s) * 32767)
		var frame [4]byte
		binary.LittleEndian.PutUint16(frame[0:2], uint16(v))
		binary.LittleEndian.PutUint16(frame[2:4], uint16(v))
		buf = append(buf, frame[:]...)
	}

	copied := copy(p[n:], buf)
	if copied < len(buf) {
		r.overflow = buf[copied:]
	}
	n += copied
	return n, nil
}

func clampSample(s float32) float32 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}

// NewOutput creates an audio sink for apu, reusing ctx if non-nil
// (ebiten only allows one audio.Context per process) or creating one at
// the APU's configured sample rate otherwise.
func NewOutput(a *APU, ctx *audio.Context) (*Output, error) {
	if ctx == nil {
		ctx = audio.NewContext(a.GetSampleRate())
	}
	reader := &sampleReader{apu: a}
	player, err := ctx.NewPlayer(reader)
	if err != nil {
		return nil, err
	}
	return &Output{apu: a, context: ctx, player: player, reader: reader}, nil
}

// Start begins streaming APU output to the audio device.
func (o *Output) Start() {
	o.player.Play()
}

// Stop halts audio playback without discarding the player.
func (o *Output) Stop() {
	o.player.Pause()
}

// SetVolume sets playback volume, 0.0 (silent) to 1.0 (full).
func (o *Output) SetVolume(v float64) {
	o.player.SetVolume(v)
}

// Context returns the underlying ebiten audio context, for callers that
// need to share it with other audio.Player instances.
func (o *Output) Context() *audio.Context {
	return o.context
}

var _ io.Reader = (*sampleReader)(nil)
