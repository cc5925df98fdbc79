// Package wav serializes rendered buffers to canonical RIFF/WAVE bytes
// and decodes them back for the realtime mixer.
package wav

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"aria/audio"
)

const (
	headerSize     = 44
	formatPCM      = 1
	formatFloat32  = 3
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// Encode serializes a stereo buffer as 16-bit little-endian PCM.
func Encode(buf *audio.Buffer) []byte {
	channels := 2
	dataSize := buf.Len() * channels * bytesPerSample
	byteRate := buf.SampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	out := make([]byte, headerSize+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], formatPCM)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], bitsPerSample)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))

	pos := headerSize
	for _, frame := range buf.Frames {
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(out[pos:], uint16(sampleToInt16(frame[ch])))
			pos += bytesPerSample
		}
	}
	return out
}

// EncodeBase64 returns the standard-encoding base64 of Encode's output,
// the form the surrounding transport layer ships around.
func EncodeBase64(buf *audio.Buffer) string {
	return base64.StdEncoding.EncodeToString(Encode(buf))
}

func sampleToInt16(s float64) int16 {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}

// Decode parses a RIFF/WAVE payload into a stereo buffer. 16-bit PCM and
// 32-bit float data are supported; mono input is duplicated to both
// channels. Malformed payloads return an error without panicking.
func Decode(data []byte) (*audio.Buffer, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("wav: payload too short (%d bytes)", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("wav: not a RIFF/WAVE payload")
	}

	// Walk chunks: fmt must precede data.
	var (
		format     uint16
		channels   int
		sampleRate int
		bits       int
		haveFmt    bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			return nil, fmt.Errorf("wav: chunk %q overruns payload", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("wav: fmt chunk too short")
			}
			format = binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("wav: data chunk before fmt")
			}
			return decodeData(data[body:body+size], format, channels, sampleRate, bits)
		}
		if size%2 == 1 {
			size++ // chunks are word-aligned
		}
		pos = body + size
	}
	return nil, fmt.Errorf("wav: no data chunk")
}

func decodeData(raw []byte, format uint16, channels, sampleRate, bits int) (*audio.Buffer, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("wav: unsupported channel count %d", channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav: bad sample rate %d", sampleRate)
	}
	var sampleBytes int
	switch {
	case format == formatPCM && bits == 16:
		sampleBytes = 2
	case format == formatFloat32 && bits == 32:
		sampleBytes = 4
	default:
		return nil, fmt.Errorf("wav: unsupported format %d/%d-bit", format, bits)
	}
	frameBytes := sampleBytes * channels
	frames := len(raw) / frameBytes
	buf := audio.NewBuffer(sampleRate, frames)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := i*frameBytes + ch*sampleBytes
			var s float64
			if sampleBytes == 2 {
				s = float64(int16(binary.LittleEndian.Uint16(raw[off:]))) / 32767
			} else {
				s = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
			}
			if channels == 1 {
				buf.Frames[i][0] = s
				buf.Frames[i][1] = s
			} else {
				buf.Frames[i][ch] = s
			}
		}
	}
	return buf, nil
}
