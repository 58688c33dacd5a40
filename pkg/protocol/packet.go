// ABOUTME: Binary wire codec for gateway audio and rotation frames
// ABOUTME: Decodes tagged big-endian packets into AudioFrame and RotationUpdate
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

const (
	// TagAudio marks an audio frame; every other tag is a rotation update
	TagAudio byte = 0

	// TagRotation is the tag written by EncodeRotation
	TagRotation byte = 1

	// AudioHeaderSize is tag + 16 byte speaker id + position + direction
	AudioHeaderSize = 1 + 16 + 3*8 + 3*8 // 65 bytes

	// RotationHeaderSize is tag + rotation vector
	RotationHeaderSize = 1 + 3*8 // 25 bytes
)

// ErrMalformedPacket is returned when a buffer is shorter than the header its tag requires
var ErrMalformedPacket = errors.New("malformed packet")

// Vec3 is a three component vector
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Pose is a speaker's position and forward direction
type Pose struct {
	Position  Vec3
	Direction Vec3
}

// SpeakerID identifies a remote speaker. It is only ever compared, never
// interpreted as a number.
type SpeakerID [16]byte

// SpeakerIDFromHalves builds an id from the two 64-bit halves carried on the wire
func SpeakerIDFromHalves(hi, lo uint64) SpeakerID {
	var id SpeakerID
	binary.BigEndian.PutUint64(id[:8], hi)
	binary.BigEndian.PutUint64(id[8:], lo)
	return id
}

// Halves returns the two 64-bit halves the id was built from
func (id SpeakerID) Halves() (hi, lo uint64) {
	return binary.BigEndian.Uint64(id[:8]), binary.BigEndian.Uint64(id[8:])
}

func (id SpeakerID) String() string {
	return uuid.UUID(id).String()
}

// Packet is a decoded inbound binary frame: AudioFrame or RotationUpdate
type Packet interface {
	Tag() byte
}

// AudioFrame is one codec payload from a remote speaker
type AudioFrame struct {
	Speaker SpeakerID
	Pose    Pose
	Payload []byte // Codec data, opaque to the protocol layer
}

// Tag implements Packet
func (AudioFrame) Tag() byte { return TagAudio }

// RotationUpdate changes the local listener's orientation
type RotationUpdate struct {
	Rotation Vec3
}

// Tag implements Packet
func (RotationUpdate) Tag() byte { return TagRotation }

// DecodePacket parses an inbound binary frame. The audio payload aliases data.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrMalformedPacket)
	}

	tag := data[0]
	if tag == TagAudio {
		if len(data) < AudioHeaderSize {
			return nil, fmt.Errorf("%w: audio frame needs %d bytes, got %d",
				ErrMalformedPacket, AudioHeaderSize, len(data))
		}

		return AudioFrame{
			Speaker: SpeakerIDFromHalves(
				binary.BigEndian.Uint64(data[1:9]),
				binary.BigEndian.Uint64(data[9:17]),
			),
			Pose: Pose{
				Position:  readVec3(data[17:41]),
				Direction: readVec3(data[41:65]),
			},
			Payload: data[AudioHeaderSize:],
		}, nil
	}

	if len(data) < RotationHeaderSize {
		return nil, fmt.Errorf("%w: rotation update (tag %d) needs %d bytes, got %d",
			ErrMalformedPacket, tag, RotationHeaderSize, len(data))
	}

	return RotationUpdate{Rotation: readVec3(data[1:RotationHeaderSize])}, nil
}

// EncodeAudioFrame builds the tagged wire form of an audio frame
func EncodeAudioFrame(f AudioFrame) []byte {
	buf := make([]byte, AudioHeaderSize+len(f.Payload))
	buf[0] = TagAudio
	copy(buf[1:17], f.Speaker[:])
	putVec3(buf[17:41], f.Pose.Position)
	putVec3(buf[41:65], f.Pose.Direction)
	copy(buf[AudioHeaderSize:], f.Payload)
	return buf
}

// EncodeRotation builds the tagged wire form of a rotation update
func EncodeRotation(r RotationUpdate) []byte {
	buf := make([]byte, RotationHeaderSize)
	buf[0] = TagRotation
	putVec3(buf[1:], r.Rotation)
	return buf
}

func readVec3(b []byte) Vec3 {
	return Vec3{
		X: math.Float64frombits(binary.BigEndian.Uint64(b[0:8])),
		Y: math.Float64frombits(binary.BigEndian.Uint64(b[8:16])),
		Z: math.Float64frombits(binary.BigEndian.Uint64(b[16:24])),
	}
}

func putVec3(b []byte, v Vec3) {
	binary.BigEndian.PutUint64(b[0:8], math.Float64bits(v.X))
	binary.BigEndian.PutUint64(b[8:16], math.Float64bits(v.Y))
	binary.BigEndian.PutUint64(b[16:24], math.Float64bits(v.Z))
}
