// ABOUTME: Audio type definitions
// ABOUTME: Defines the fixed session audio parameters and sample conversions
package audio

import (
	"fmt"
	"slices"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Default parameter values used when a field is left zero
const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
	DefaultBitDepth   = 16
	DefaultMsPerFrame = 60
)

// Codec names for frame payloads
const (
	CodecOpus = "opus"
	CodecPCM  = "pcm"
)

// Format pairs a payload codec with the session parameters
type Format struct {
	Codec string
	Params
}

// Params is the single audio configuration shared by capture, encode,
// decode and playback. It is fixed at startup.
type Params struct {
	SampleRate int
	Channels   int
	BitDepth   int
	MsPerFrame int

	// FrameSize is the number of samples per channel in one frame
	FrameSize int
	// PacketSize is the number of PCM bytes in one frame
	PacketSize int
}

// NewParams derives frame and packet sizes, filling zero fields with defaults
func NewParams(sampleRate, channels, bitDepth, msPerFrame int) Params {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	if channels == 0 {
		channels = DefaultChannels
	}
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}
	if msPerFrame == 0 {
		msPerFrame = DefaultMsPerFrame
	}

	frameSize := sampleRate * msPerFrame / 1000

	return Params{
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
		MsPerFrame: msPerFrame,
		FrameSize:  frameSize,
		PacketSize: frameSize * channels * bitDepth / 8,
	}
}

// DefaultParams returns 48kHz stereo 16-bit audio in 60ms frames
func DefaultParams() Params {
	return NewParams(0, 0, 0, 0)
}

// FramePeriod returns the duration represented by one frame
func (p Params) FramePeriod() time.Duration {
	return time.Duration(p.MsPerFrame) * time.Millisecond
}

// SamplesPerFrame returns the interleaved sample count of one frame
func (p Params) SamplesPerFrame() int {
	return p.FrameSize * p.Channels
}

// Validate reports configurations the pipeline cannot run with
func (p Params) Validate() error {
	if p.BitDepth != 16 && p.BitDepth != 24 {
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", p.BitDepth)
	}
	if p.Channels < 1 || p.Channels > 2 {
		return fmt.Errorf("unsupported channel count: %d", p.Channels)
	}
	if p.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive (rate=%d, ms=%d)", p.SampleRate, p.MsPerFrame)
	}
	return nil
}

// Opus accepts these sample rates and, in whole milliseconds, these frame durations
var (
	opusSampleRates = []int{8000, 12000, 16000, 24000, 48000}
	opusFrameMs     = []int{10, 20, 40, 60}
)

// Validate checks the params and, for Opus, the rates and frame durations
// the codec accepts. Other codec names are left to the caller.
func (f Format) Validate() error {
	if err := f.Params.Validate(); err != nil {
		return err
	}
	if f.Codec != CodecOpus {
		return nil
	}
	if !slices.Contains(opusSampleRates, f.SampleRate) {
		return fmt.Errorf("opus does not support %dHz (supported: 8000, 12000, 16000, 24000, 48000)", f.SampleRate)
	}
	if !slices.Contains(opusFrameMs, f.MsPerFrame) {
		return fmt.Errorf("opus does not support %dms frames (supported: 10, 20, 40, 60)", f.MsPerFrame)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("%dHz %dch %dbit %dms", p.SampleRate, p.Channels, p.BitDepth, p.MsPerFrame)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleToFloat32 converts a 24-bit range sample to [-1, 1)
func SampleToFloat32(sample int32) float32 {
	return float32(sample) / 8388608.0
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
