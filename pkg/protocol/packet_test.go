// ABOUTME: Tests for the binary wire codec
// ABOUTME: Covers audio/rotation round trips and truncation across every tag
package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDecodeAudioFrameRoundTrip(t *testing.T) {
	frame := AudioFrame{
		Speaker: SpeakerIDFromHalves(0x0123456789abcdef, 0xfedcba9876543210),
		Pose: Pose{
			Position:  Vec3{X: 1.5, Y: -2.25, Z: 1e6},
			Direction: Vec3{X: 0, Y: 0.5, Z: -1},
		},
		Payload: []byte{0xde, 0xad, 0xbe, 0xef, 0x01},
	}

	data := EncodeAudioFrame(frame)
	require.Len(t, data, AudioHeaderSize+5)
	require.Equal(t, TagAudio, data[0])

	pkt, err := DecodePacket(data)
	require.NoError(t, err)

	got, ok := pkt.(AudioFrame)
	require.True(t, ok, "expected AudioFrame, got %T", pkt)

	if diff := cmp.Diff(frame, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	hi, lo := got.Speaker.Halves()
	require.Equal(t, uint64(0x0123456789abcdef), hi)
	require.Equal(t, uint64(0xfedcba9876543210), lo)
}

func TestDecodeAudioFrameEmptyPayload(t *testing.T) {
	data := EncodeAudioFrame(AudioFrame{Speaker: SpeakerIDFromHalves(1, 2)})

	pkt, err := DecodePacket(data)
	require.NoError(t, err)
	require.Empty(t, pkt.(AudioFrame).Payload)
}

func TestDecodeAudioFrameWireLayout(t *testing.T) {
	// Hand-built frame: halves at 1 and 9, floats big-endian from 17
	data := make([]byte, AudioHeaderSize+2)
	data[8] = 0x07  // hi = 7
	data[16] = 0x09 // lo = 9
	// position.x = 1.0 (0x3FF0000000000000)
	data[17] = 0x3f
	data[18] = 0xf0
	// direction.z = -2.0 (0xC000000000000000)
	data[57] = 0xc0
	data[65] = 0xaa
	data[66] = 0xbb

	pkt, err := DecodePacket(data)
	require.NoError(t, err)

	frame := pkt.(AudioFrame)
	hi, lo := frame.Speaker.Halves()
	require.Equal(t, uint64(7), hi)
	require.Equal(t, uint64(9), lo)
	require.Equal(t, 1.0, frame.Pose.Position.X)
	require.Equal(t, -2.0, frame.Pose.Direction.Z)
	require.Equal(t, []byte{0xaa, 0xbb}, frame.Payload)
}

func TestDecodeRotationUpdate(t *testing.T) {
	for _, tag := range []byte{1, 2, 0x7f, 0xff} {
		data := EncodeRotation(RotationUpdate{Rotation: Vec3{X: 0.25, Y: 0, Z: -0.75}})
		data[0] = tag

		pkt, err := DecodePacket(data)
		require.NoError(t, err, "tag %d", tag)

		rot, ok := pkt.(RotationUpdate)
		require.True(t, ok, "tag %d decoded as %T", tag, pkt)
		require.Equal(t, Vec3{X: 0.25, Y: 0, Z: -0.75}, rot.Rotation)
	}
}

func TestDecodeRotationIgnoresTrailingBytes(t *testing.T) {
	data := append(EncodeRotation(RotationUpdate{Rotation: Vec3{X: 1}}), 0x01, 0x02)

	pkt, err := DecodePacket(data)
	require.NoError(t, err)
	require.Equal(t, Vec3{X: 1}, pkt.(RotationUpdate).Rotation)
}

func TestDecodeTruncatedPackets(t *testing.T) {
	_, err := DecodePacket(nil)
	require.ErrorIs(t, err, ErrMalformedPacket, "empty buffer")

	for tag := 0; tag < 256; tag++ {
		header := RotationHeaderSize
		if byte(tag) == TagAudio {
			header = AudioHeaderSize
		}

		full := make([]byte, header)
		full[0] = byte(tag)
		for n := 1; n < header; n++ {
			_, err := DecodePacket(full[:n])
			if !errors.Is(err, ErrMalformedPacket) {
				t.Fatalf("tag %d length %d: expected ErrMalformedPacket, got %v", tag, n, err)
			}
		}

		_, err := DecodePacket(full)
		require.NoError(t, err, "tag %d: exact header length must decode", tag)
	}
}

func TestSpeakerIDEquality(t *testing.T) {
	a := SpeakerIDFromHalves(42, 7)
	b := SpeakerIDFromHalves(42, 7)
	c := SpeakerIDFromHalves(43, 7)
	d := SpeakerIDFromHalves(42, 8)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c, "high half must take part in identity")
	require.NotEqual(t, a, d)

	speakers := map[SpeakerID]int{a: 1}
	speakers[b]++
	require.Equal(t, 2, speakers[a])
}

func TestSpeakerIDString(t *testing.T) {
	id := SpeakerIDFromHalves(0x0011223344556677, 0x8899aabbccddeeff)
	require.Equal(t, "00112233-4455-6677-8899-aabbccddeeff", id.String())
}

func TestDecodeDoesNotCopyPayload(t *testing.T) {
	data := EncodeAudioFrame(AudioFrame{Payload: []byte{1, 2, 3}})
	pkt, err := DecodePacket(data)
	require.NoError(t, err)

	payload := pkt.(AudioFrame).Payload
	require.True(t, bytes.Equal(payload, data[AudioHeaderSize:]))
}
