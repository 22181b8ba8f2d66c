// Package media handles audio file validation, duration probing,
// interval cropping, and format conversion.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	wav "github.com/youpy/go-wav"
)

// targetSampleRate is what the recognizer and embedding models expect.
const targetSampleRate = 16000

// IsWAV reports whether the file parses as a WAV file.
func IsWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	_, err = wav.NewReader(f).Format()
	return err == nil
}

// Duration returns the audio length of a WAV file in seconds.
func Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d, err := wav.NewReader(f).Duration()
	if err != nil {
		return 0, fmt.Errorf("probe duration of %s: %w", filepath.Base(path), err)
	}
	return d.Seconds(), nil
}

// ConvertToWAV transcodes any ffmpeg-readable input to 16 kHz mono
// PCM WAV.
func ConvertToWAV(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", src,
		"-ar", fmt.Sprintf("%d", targetSampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		dst, "-y")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg convert %s: %w: %s", filepath.Base(src), err, lastLine(stderr.String()))
	}
	return nil
}

// EnsureWAV returns a path to a valid WAV rendition of the input,
// converting into workDir when the input is not already WAV.
func EnsureWAV(ctx context.Context, path, workDir string) (string, error) {
	if IsWAV(path) {
		return path, nil
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	converted := filepath.Join(workDir, base+"_converted.wav")
	if err := ConvertToWAV(ctx, path, converted); err != nil {
		return "", err
	}
	if !IsWAV(converted) {
		return "", fmt.Errorf("conversion of %s did not produce a valid WAV file", filepath.Base(path))
	}
	return converted, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
