package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	wav "github.com/youpy/go-wav"

	"github.com/speakerlab/diascribe/internal/embedding"
)

// readChunk bounds how many samples are decoded per ReadSamples call.
const readChunk = 4096

// WAVCropper reads time intervals out of WAV files on disk. It
// implements embedding.Cropper.
type WAVCropper struct{}

// Crop decodes the samples between start and end seconds, one slice
// per channel. Reading past the data chunk truncates the interval; an
// interval entirely past the data is an error.
func (WAVCropper) Crop(audioPath string, start, end float64) (*embedding.Waveform, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := wav.NewReader(f)
	format, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("read format of %s: %w", filepath.Base(audioPath), err)
	}

	rate := int(format.SampleRate)
	channels := int(format.NumChannels)
	startSample := int(start * float64(rate))
	wantSamples := int((end - start) * float64(rate))
	if wantSamples <= 0 {
		return nil, fmt.Errorf("empty interval %.3f-%.3f", start, end)
	}

	if err := skipSamples(reader, startSample); err != nil {
		return nil, fmt.Errorf("seek to %.3fs: %w", start, err)
	}

	samples := make([][]float64, channels)
	for c := range samples {
		samples[c] = make([]float64, 0, wantSamples)
	}

	read := 0
	for read < wantSamples {
		n := wantSamples - read
		if n > readChunk {
			n = readChunk
		}
		chunk, err := reader.ReadSamples(uint32(n))
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		for _, smp := range chunk {
			for c := 0; c < channels; c++ {
				samples[c] = append(samples[c], reader.FloatValue(smp, uint(c)))
			}
		}
		read += len(chunk)
	}

	if read == 0 {
		return nil, fmt.Errorf("interval %.3f-%.3f is past the end of the audio", start, end)
	}
	return &embedding.Waveform{Samples: samples, SampleRate: rate}, nil
}

func skipSamples(reader *wav.Reader, count int) error {
	skipped := 0
	for skipped < count {
		n := count - skipped
		if n > readChunk {
			n = readChunk
		}
		chunk, err := reader.ReadSamples(uint32(n))
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		skipped += len(chunk)
	}
	return nil
}
