package aggregate

import "strings"

// Voice 语音角色
type Voice string

const (
	VoiceAlloy   Voice = "alloy"
	VoiceAsh     Voice = "ash"
	VoiceCoral   Voice = "coral"
	VoiceEcho    Voice = "echo"
	VoiceFable   Voice = "fable"
	VoiceOnyx    Voice = "onyx"
	VoiceNova    Voice = "nova"
	VoiceSage    Voice = "sage"
	VoiceShimmer Voice = "shimmer"

	// Provider extensions accepted as-is.
	VoiceBallad Voice = "ballad"
	VoiceVerse  Voice = "verse"
)

// Model 语音合成模型
type Model string

const (
	ModelTTS1         Model = "tts-1"
	ModelTTS1HD       Model = "tts-1-hd"
	ModelGPT4oMiniTTS Model = "gpt-4o-mini-tts"
)

// Format 音频容器格式，同时作为文件扩展名
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatOpus Format = "opus"
	FormatAAC  Format = "aac"
	FormatFLAC Format = "flac"
	FormatWAV  Format = "wav"
	FormatPCM  Format = "pcm"
)

const (
	DefaultVoice  = VoiceAlloy
	DefaultModel  = ModelTTS1
	DefaultFormat = FormatMP3
	DefaultSpeed  = 1.0

	MinSpeed = 0.25
	MaxSpeed = 4.0
)

var (
	standardVoices = map[Voice]struct{}{
		VoiceAlloy: {}, VoiceAsh: {}, VoiceCoral: {}, VoiceEcho: {}, VoiceFable: {},
		VoiceOnyx: {}, VoiceNova: {}, VoiceSage: {}, VoiceShimmer: {},
	}
	extendedVoices = map[Voice]struct{}{
		VoiceBallad: {}, VoiceVerse: {},
	}
	knownModels = map[Model]struct{}{
		ModelTTS1: {}, ModelTTS1HD: {}, ModelGPT4oMiniTTS: {},
	}
	knownFormats = map[Format]struct{}{
		FormatMP3: {}, FormatOpus: {}, FormatAAC: {}, FormatFLAC: {}, FormatWAV: {}, FormatPCM: {},
	}
)

// Voices lists the standard voices followed by the tolerated extensions.
func Voices() []Voice {
	return []Voice{
		VoiceAlloy, VoiceAsh, VoiceCoral, VoiceEcho, VoiceFable,
		VoiceOnyx, VoiceNova, VoiceSage, VoiceShimmer,
		VoiceBallad, VoiceVerse,
	}
}

func Models() []Model {
	return []Model{ModelTTS1, ModelTTS1HD, ModelGPT4oMiniTTS}
}

func Formats() []Format {
	return []Format{FormatMP3, FormatOpus, FormatAAC, FormatFLAC, FormatWAV, FormatPCM}
}

// IsKnown reports whether v is a standard voice or a tolerated extension.
func (v Voice) IsKnown() bool {
	if _, ok := standardVoices[v]; ok {
		return true
	}
	_, ok := extendedVoices[v]
	return ok
}

// IsExtension reports whether v is one of the provider-specific voices that
// are passed through without being part of the standard set.
func (v Voice) IsExtension() bool {
	_, ok := extendedVoices[v]
	return ok
}

func (m Model) IsKnown() bool {
	_, ok := knownModels[m]
	return ok
}

func (f Format) IsKnown() bool {
	_, ok := knownFormats[f]
	return ok
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ResolveVoice maps a requested voice to the one that is sent upstream.
// Unknown or empty values become DefaultVoice; coerced is true when the
// requested value was replaced.
func ResolveVoice(requested string) (voice Voice, coerced bool) {
	v := Voice(strings.ToLower(strings.TrimSpace(requested)))
	if v.IsKnown() {
		return v, false
	}
	return DefaultVoice, requested != ""
}

// ParseModel normalises a model name; ok is false for unknown models.
func ParseModel(s string) (Model, bool) {
	m := Model(strings.ToLower(strings.TrimSpace(s)))
	return m, m.IsKnown()
}

// ParseFormat normalises a format name; ok is false for unknown formats.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	return f, f.IsKnown()
}

// SpeedInRange reports whether speed lies in [MinSpeed, MaxSpeed].
func SpeedInRange(speed float64) bool {
	return speed >= MinSpeed && speed <= MaxSpeed
}

func joinNames[T ~string](items []T) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = string(item)
	}
	return strings.Join(names, ", ")
}

// VoiceNames, ModelNames and FormatNames are used in help text.
func VoiceNames() string  { return joinNames(Voices()) }
func ModelNames() string  { return joinNames(Models()) }
func FormatNames() string { return joinNames(Formats()) }
