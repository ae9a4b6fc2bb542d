package recording

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrUnsupportedAudio is returned for audio the session cannot stream.
var ErrUnsupportedAudio = errors.New("unsupported audio")

// WAVInfo describes a decoded WAV header.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// InspectWAV reads and checks a WAV header. Anything other than mono PCM
// fails with ErrUnsupportedAudio.
func InspectWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	return inspect(wav.NewDecoder(f), path)
}

func inspect(d *wav.Decoder, path string) (WAVInfo, error) {
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return WAVInfo{}, fmt.Errorf("%w: %s: %v", ErrUnsupportedAudio, path, err)
	}
	if !d.IsValidFile() {
		return WAVInfo{}, fmt.Errorf("%w: %s is not a valid WAV file", ErrUnsupportedAudio, path)
	}

	info := WAVInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	if info.Channels != 1 {
		return info, fmt.Errorf("%w: only mono audio is supported, %s has %d channels", ErrUnsupportedAudio, path, info.Channels)
	}
	switch info.BitDepth {
	case 8, 16, 24, 32:
	default:
		return info, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedAudio, info.BitDepth)
	}
	return info, nil
}

// FileStreamer replays a mono WAV file as 16-bit PCM chunks, sleeping one
// chunk duration after each to simulate live audio.
type FileStreamer struct {
	path   string
	config Config
	sleep  func(ctx context.Context, d time.Duration) bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Source = (*FileStreamer)(nil)

// NewFileStreamer streams path; config.SampleRate is the rate the session
// expects and config.ChunkDuration the chunk length.
func NewFileStreamer(path string, config Config) *FileStreamer {
	return &FileStreamer{path: path, config: config, sleep: sleepCtx}
}

func (s *FileStreamer) Path() string {
	return s.path
}

// Start validates the file and begins streaming. Validation failures are
// returned here, before any frame is produced.
func (s *FileStreamer) Start(ctx context.Context) (<-chan AudioFrame, <-chan error, error) {
	if s.config.ChunkDuration <= 0 {
		return nil, nil, fmt.Errorf("invalid ChunkDuration: %v", s.config.ChunkDuration)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audio file: %w", err)
	}
	d := wav.NewDecoder(f)
	info, err := inspect(d, s.path)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.SampleRate != s.config.SampleRate {
		log.Printf("recording: warning: file sample rate (%d) doesn't match expected rate (%d)", info.SampleRate, s.config.SampleRate)
	}
	if err := d.FwdToPCM(); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedAudio, s.path, err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	bufSize := s.config.ChannelBufferSize
	if bufSize <= 0 {
		bufSize = 1
	}
	frameCh := make(chan AudioFrame, bufSize)
	errCh := make(chan error, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer f.Close()
		defer close(errCh)
		defer close(frameCh)
		defer cancel()

		chunks, err := s.stream(streamCtx, d, info, frameCh)
		if err != nil {
			emitErr(errCh, err)
			return
		}
		log.Printf("recording: finished streaming %s (%d chunks)", s.path, chunks)
	}()

	log.Printf("recording: streaming %s (%d Hz, %d-bit)", s.path, info.SampleRate, info.BitDepth)
	return frameCh, errCh, nil
}

func (s *FileStreamer) stream(ctx context.Context, d *wav.Decoder, info WAVInfo, frameCh chan<- AudioFrame) (int, error) {
	// Chunks are measured in the file's own rate, as they are sent unresampled.
	samplesPerChunk := int(int64(info.SampleRate) * int64(s.config.ChunkDuration) / int64(time.Second))
	if samplesPerChunk <= 0 {
		samplesPerChunk = 1
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: info.SampleRate},
		Data:           make([]int, samplesPerChunk),
		SourceBitDepth: info.BitDepth,
	}

	chunks := 0
	for {
		samples, err := readChunk(d, buf, samplesPerChunk)
		if err != nil {
			return chunks, fmt.Errorf("decode audio: %w", err)
		}
		if len(samples) == 0 {
			return chunks, nil
		}

		frame := AudioFrame{Data: toS16LE(samples, info.BitDepth), Timestamp: time.Now()}
		select {
		case frameCh <- frame:
			chunks++
		case <-ctx.Done():
			return chunks, nil
		}

		if !s.sleep(ctx, s.config.ChunkDuration) {
			return chunks, nil
		}
	}
}

// readChunk decodes up to want samples, short only at end of data.
func readChunk(d *wav.Decoder, buf *audio.IntBuffer, want int) ([]int, error) {
	out := make([]int, 0, want)
	for len(out) < want {
		buf.Data = buf.Data[:want-len(out)]
		n, err := d.PCMBuffer(buf)
		if err != nil {
			return out, err
		}
		if n == 0 {
			break
		}
		out = append(out, buf.Data[:n]...)
	}
	return out, nil
}

func (s *FileStreamer) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (s *FileStreamer) Wait() {
	s.wg.Wait()
}

// toS16LE converts decoded samples of the given bit depth to little-endian
// signed 16-bit PCM.
func toS16LE(samples []int, bitDepth int) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		switch bitDepth {
		case 8:
			v = (v - 128) << 8
		case 24:
			v >>= 8
		case 32:
			v >>= 16
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
