package wav

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/audio"
)

func sine(rate, frames int) *audio.Buffer {
	buf := audio.NewBuffer(rate, frames)
	for i := range buf.Frames {
		s := 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
		buf.Frames[i][0] = s
		buf.Frames[i][1] = -s
	}
	return buf
}

func TestEncodeHeader(t *testing.T) {
	buf := sine(22050, 1000)
	data := Encode(buf)

	require.Equal(t, 44+1000*4, len(data))
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(data[16:]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:]), "canonical PCM")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[22:]), "stereo")
	assert.Equal(t, uint32(22050), binary.LittleEndian.Uint32(data[24:]))
	assert.Equal(t, uint32(22050*4), binary.LittleEndian.Uint32(data[28:]), "byte rate")
	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(data[32:]), "block align")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(1000*4), binary.LittleEndian.Uint32(data[40:]))
	assert.Equal(t, uint32(36+1000*4), binary.LittleEndian.Uint32(data[4:]))
}

func TestRoundTrip(t *testing.T) {
	buf := sine(8000, 800)
	decoded, err := Decode(Encode(buf))
	require.NoError(t, err)
	require.Equal(t, buf.Len(), decoded.Len())
	assert.Equal(t, buf.SampleRate, decoded.SampleRate)
	for i := range buf.Frames {
		// 16-bit quantization noise bound
		assert.InDelta(t, buf.Frames[i][0], decoded.Frames[i][0], 1.0/32000)
		assert.InDelta(t, buf.Frames[i][1], decoded.Frames[i][1], 1.0/32000)
	}
}

func TestEncodeClips(t *testing.T) {
	buf := audio.NewBuffer(8000, 2)
	buf.Frames[0] = [2]float64{2.0, -2.0}
	decoded, err := Decode(Encode(buf))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, decoded.Frames[0][0], 1e-3)
	assert.InDelta(t, -1.0, decoded.Frames[0][1], 1e-3)
}

func TestEncodeBase64(t *testing.T) {
	buf := sine(8000, 16)
	s := EncodeBase64(buf)
	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Equal(t, Encode(buf), raw)
}

func TestDecodeMono(t *testing.T) {
	// Hand-build a mono PCM16 file with one full-scale sample.
	data := make([]byte, 44+2)
	copy(data[0:], "RIFF")
	binary.LittleEndian.PutUint32(data[4:], uint32(36+2))
	copy(data[8:], "WAVE")
	copy(data[12:], "fmt ")
	binary.LittleEndian.PutUint32(data[16:], 16)
	binary.LittleEndian.PutUint16(data[20:], 1)
	binary.LittleEndian.PutUint16(data[22:], 1)
	binary.LittleEndian.PutUint32(data[24:], 8000)
	binary.LittleEndian.PutUint32(data[28:], 16000)
	binary.LittleEndian.PutUint16(data[32:], 2)
	binary.LittleEndian.PutUint16(data[34:], 16)
	copy(data[36:], "data")
	binary.LittleEndian.PutUint32(data[40:], 2)
	binary.LittleEndian.PutUint16(data[44:], uint16(int16(32767)))

	buf, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 1, buf.Len())
	assert.InDelta(t, 1.0, buf.Frames[0][0], 1e-9)
	assert.InDelta(t, 1.0, buf.Frames[0][1], 1e-9)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("RIFF")},
		{"not riff", make([]byte, 64)},
		{"truncated chunks", append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 40)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.Error(t, err)
		})
	}

	t.Run("corrupt magic", func(t *testing.T) {
		good := Encode(sine(8000, 10))
		good[0] = 'X'
		_, err := Decode(good)
		assert.Error(t, err)
	})
	t.Run("unsupported bit depth", func(t *testing.T) {
		good := Encode(sine(8000, 10))
		binary.LittleEndian.PutUint16(good[34:], 24)
		_, err := Decode(good)
		assert.Error(t, err)
	})
}
