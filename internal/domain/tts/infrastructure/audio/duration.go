package audio

import (
	"bytes"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"tts-mcp-go/internal/domain/tts/aggregate"
)

// OpenAI returns raw pcm as 24kHz signed 16-bit little-endian mono.
const (
	pcmSampleRate     = 24000
	pcmBytesPerSample = 2
)

// go-mp3 always decodes to 16-bit stereo.
const mp3BytesPerFrame = 4

// EstimateDuration derives the clip length from the audio container. ok is
// false when the format carries no cheap length information or the data does
// not decode.
func EstimateDuration(format aggregate.Format, data []byte) (time.Duration, bool) {
	if len(data) == 0 {
		return 0, false
	}

	switch format {
	case aggregate.FormatMP3:
		return mp3Duration(data)
	case aggregate.FormatPCM:
		samples := len(data) / pcmBytesPerSample
		return time.Duration(samples) * time.Second / pcmSampleRate, true
	default:
		return 0, false
	}
}

func mp3Duration(data []byte) (d time.Duration, ok bool) {
	// The decoder is not hardened against arbitrary bytes.
	defer func() {
		if recover() != nil {
			d, ok = 0, false
		}
	}()

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, false
	}
	rate := dec.SampleRate()
	length := dec.Length()
	if rate <= 0 || length <= 0 {
		return 0, false
	}
	frames := length / mp3BytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(rate), true
}

// Seconds rounds d to one decimal place.
func Seconds(d time.Duration) float64 {
	return float64(d.Round(100*time.Millisecond)) / float64(time.Second)
}
