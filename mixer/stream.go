package mixer

import (
	"encoding/binary"
	"io"
	"math"
)

// mixStream feeds the output device interleaved float32 LE stereo
// samples, summing every decoded track at the current frame with its
// live effective gain. The device pulls from its own thread, so each
// read takes the mixer lock.
type mixStream struct {
	mixer *Mixer
	frame int
}

const bytesPerFrame = 8 // 2 channels x float32

func (s *mixStream) Read(p []byte) (int, error) {
	m := s.mixer
	m.mu.Lock()
	defer m.mu.Unlock()

	outRate := m.out.SampleRate()
	endFrame := int(m.duration * float64(outRate))
	if s.frame >= endFrame {
		return 0, io.EOF
	}
	frames := len(p) / bytesPerFrame
	if remain := endFrame - s.frame; frames > remain {
		frames = remain
	}

	for i := 0; i < frames; i++ {
		var l, r float64
		for _, tr := range m.tracks {
			if tr.buf == nil {
				continue
			}
			gain := tr.effectiveGain()
			if gain == 0 {
				continue
			}
			idx := s.frame + i
			if tr.buf.SampleRate != outRate {
				// nearest-neighbor rate adaptation
				idx = (s.frame + i) * tr.buf.SampleRate / outRate
			}
			if idx >= tr.buf.Len() {
				continue
			}
			l += tr.buf.Frames[idx][0] * gain
			r += tr.buf.Frames[idx][1] * gain
		}
		putF32(p[i*bytesPerFrame:], clip(l))
		putF32(p[i*bytesPerFrame+4:], clip(r))
	}
	s.frame += frames
	return frames * bytesPerFrame, nil
}

func clip(s float64) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return float32(s)
}

func putF32(p []byte, v float32) {
	binary.LittleEndian.PutUint32(p, math.Float32bits(v))
}
