package aggregate

import "unicode/utf8"

// SynthesisRequest 一次语音合成请求。Credential 为空时请求在发出前即被拒绝。
type SynthesisRequest struct {
	Text         string
	Model        Model
	Voice        Voice
	Speed        float64
	Format       Format
	Instructions string
	Credential   string
}

// TextLength counts code points, so "hello" and "こんにちは" both have length 5.
func (r SynthesisRequest) TextLength() int {
	return utf8.RuneCountInString(r.Text)
}

// PlaybackResult 播放模式结果
type PlaybackResult struct {
	DurationSeconds float64 `json:"duration"`
	TextLength      int     `json:"text_length"`
	// AudioSeconds is the estimated clip length, 0 when it cannot be derived
	// from the container.
	AudioSeconds float64 `json:"audio_seconds,omitempty"`
}

// SaveResult 文件输出模式结果
type SaveResult struct {
	Path         string  `json:"path"`
	Bytes        int     `json:"bytes"`
	TextLength   int     `json:"text_length"`
	AudioSeconds float64 `json:"audio_seconds,omitempty"`
}
