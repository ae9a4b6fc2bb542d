package recording

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, samples []int, rate, bitDepth, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "call.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
	return path
}

func ramp(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = (i%200 - 100) * 100
	}
	return s
}

func noSleep(ctx context.Context, d time.Duration) bool {
	return ctx.Err() == nil
}

func collectFrames(t *testing.T, frames <-chan AudioFrame, errs <-chan error) ([]AudioFrame, error) {
	t.Helper()
	var out []AudioFrame
	timeout := time.After(5 * time.Second)
	for frames != nil {
		select {
		case f, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			out = append(out, f)
		case <-timeout:
			t.Fatal("timed out reading frames")
		}
	}
	return out, <-errs
}

func TestInspectWAV(t *testing.T) {
	tests := []struct {
		name        string
		channels    int
		bitDepth    int
		unsupported bool
	}{
		{"mono 16-bit", 1, 16, false},
		{"stereo", 2, 16, true},
		{"mono 24-bit", 1, 24, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeWAV(t, ramp(1600*tc.channels), 16000, tc.bitDepth, tc.channels)
			info, err := InspectWAV(path)

			if tc.unsupported {
				if !errors.Is(err, ErrUnsupportedAudio) {
					t.Fatalf("InspectWAV() error = %v, want ErrUnsupportedAudio", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("InspectWAV() error = %v", err)
			}
			if info.SampleRate != 16000 || info.Channels != 1 || info.BitDepth != tc.bitDepth {
				t.Errorf("info = %+v", info)
			}
		})
	}
}

func TestInspectWAV_NotAWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.wav")
	if err := os.WriteFile(path, []byte("definitely not RIFF data, just some text"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := InspectWAV(path); !errors.Is(err, ErrUnsupportedAudio) {
		t.Errorf("InspectWAV() error = %v, want ErrUnsupportedAudio", err)
	}
}

func TestInspectWAV_Missing(t *testing.T) {
	_, err := InspectWAV(filepath.Join(t.TempDir(), "nope.wav"))
	if err == nil || errors.Is(err, ErrUnsupportedAudio) {
		t.Errorf("InspectWAV() error = %v, want open error", err)
	}
}

func TestFileStreamer_Chunks(t *testing.T) {
	samples := ramp(16000*2 + 800) // 2.05 s at 16 kHz
	path := writeWAV(t, samples, 16000, 16, 1)

	s := NewFileStreamer(path, DefaultConfig())
	s.sleep = noSleep

	frames, errs, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got, streamErr := collectFrames(t, frames, errs)
	s.Wait()

	if streamErr != nil {
		t.Fatalf("stream error = %v", streamErr)
	}
	if len(got) != 21 {
		t.Fatalf("got %d chunks, want 21", len(got))
	}
	for i, f := range got[:20] {
		if len(f.Data) != 3200 {
			t.Errorf("chunk %d = %d bytes, want 3200", i, len(f.Data))
		}
	}
	if last := len(got[20].Data); last != 1600 {
		t.Errorf("last chunk = %d bytes, want 1600", last)
	}

	first := int16(binary.LittleEndian.Uint16(got[0].Data[0:2]))
	if int(first) != samples[0] {
		t.Errorf("first sample = %d, want %d", first, samples[0])
	}
}

func TestFileStreamer_RejectsStereo(t *testing.T) {
	path := writeWAV(t, ramp(3200), 16000, 16, 2)
	s := NewFileStreamer(path, DefaultConfig())

	if _, _, err := s.Start(context.Background()); !errors.Is(err, ErrUnsupportedAudio) {
		t.Fatalf("Start() error = %v, want ErrUnsupportedAudio", err)
	}
}

func TestFileStreamer_SampleRateMismatchIsNotFatal(t *testing.T) {
	path := writeWAV(t, ramp(8000), 8000, 16, 1)
	s := NewFileStreamer(path, DefaultConfig())
	s.sleep = noSleep

	frames, errs, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got, streamErr := collectFrames(t, frames, errs)
	if streamErr != nil {
		t.Fatalf("stream error = %v", streamErr)
	}
	// 100ms at the file's own 8 kHz rate
	if len(got) != 10 || len(got[0].Data) != 1600 {
		t.Errorf("got %d chunks, first %d bytes", len(got), len(got[0].Data))
	}
}

func TestFileStreamer_Paced(t *testing.T) {
	path := writeWAV(t, ramp(16000*3/10), 16000, 16, 1) // 300ms
	cfg := DefaultConfig()
	cfg.ChunkDuration = 20 * time.Millisecond
	s := NewFileStreamer(path, cfg)

	start := time.Now()
	frames, errs, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got, _ := collectFrames(t, frames, errs)
	elapsed := time.Since(start)

	if len(got) != 15 {
		t.Fatalf("got %d chunks, want 15", len(got))
	}
	if elapsed < 250*time.Millisecond {
		t.Errorf("replay took %v, expected real-time pacing", elapsed)
	}
}

func TestFileStreamer_Stop(t *testing.T) {
	path := writeWAV(t, ramp(16000*5), 16000, 16, 1)
	s := NewFileStreamer(path, DefaultConfig())

	frames, errs, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-frames
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got, streamErr := collectFrames(t, frames, errs)
	s.Wait()
	if streamErr != nil {
		t.Errorf("stream error after stop = %v", streamErr)
	}
	if len(got) > 3 {
		t.Errorf("got %d chunks after stop", len(got))
	}
}

func TestToS16LE(t *testing.T) {
	tests := []struct {
		name     string
		in       int
		bitDepth int
		want     int16
	}{
		{"16-bit", -1234, 16, -1234},
		{"8-bit midpoint", 128, 8, 0},
		{"8-bit max", 255, 8, 127 << 8},
		{"24-bit", 0x123456, 24, 0x1234},
		{"32-bit negative", -65536 * 3, 32, -3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := toS16LE([]int{tc.in}, tc.bitDepth)
			if got := int16(binary.LittleEndian.Uint16(out)); got != tc.want {
				t.Errorf("toS16LE(%d, %d) = %d, want %d", tc.in, tc.bitDepth, got, tc.want)
			}
		})
	}
}
