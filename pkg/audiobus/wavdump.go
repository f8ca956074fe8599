package audiobus

import (
	"bytes"
	"encoding/binary"
	"os"
)

// DumpWav is adapted from the teacher's pkg/audio.NewWavBuffer: it
// wraps a window of committed float32 samples in a minimal 16-bit PCM
// WAV container and writes it to path. It exists purely for debugging
// a committed audio window during development or test failures — it
// sits outside the dispatch path, no pipeline component calls it.
func DumpWav(path string, samples []float32, sampleRate int) error {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return os.WriteFile(path, buf.Bytes(), 0o644)
}
