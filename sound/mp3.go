package sound

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes an MP3 stream into a mono clip. The decoder always
// yields interleaved stereo, which is averaged down.
func DecodeMP3(r io.Reader) (Clip, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	stereo, err := io.ReadAll(decoder)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to decode mp3: %w", err)
	}

	frames := len(stereo) / 4
	pcm := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		l := int32(int16(binary.LittleEndian.Uint16(stereo[i*4:])))
		r := int32(int16(binary.LittleEndian.Uint16(stereo[i*4+2:])))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16((l+r)/2)))
	}

	return Clip{SampleRate: decoder.SampleRate(), PCM: pcm}, nil
}

// LoadMP3 decodes the MP3 file at path.
func LoadMP3(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to open alert sound: %w", err)
	}
	defer f.Close()

	return DecodeMP3(f)
}
