package tts

import (
	"strings"

	"tts-mcp-go/internal/domain/tts/aggregate"
	platformerrors "tts-mcp-go/internal/platform/errors"
)

// Options is the raw user input before any defaults are applied. Speed is a
// pointer so that "not given" differs from zero.
type Options struct {
	Text     string
	FilePath string
	Speed    *float64
}

// ValidateOptions checks user input. It has no side effects and must run
// before anything touches the network or the filesystem.
func ValidateOptions(o Options) error {
	if strings.TrimSpace(o.Text) == "" && strings.TrimSpace(o.FilePath) == "" {
		return platformerrors.New(platformerrors.KindValidation, "tts:validate",
			"either text (-t, --text) or file (-f, --file) is required")
	}
	if o.Speed != nil && !aggregate.SpeedInRange(*o.Speed) {
		return speedError(*o.Speed)
	}
	return nil
}

// ValidateRequest checks a fully merged request.
func ValidateRequest(req aggregate.SynthesisRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return platformerrors.New(platformerrors.KindValidation, "tts:validate", "text must not be empty")
	}
	if !aggregate.SpeedInRange(req.Speed) {
		return speedError(req.Speed)
	}
	if !req.Model.IsKnown() {
		return platformerrors.Newf(platformerrors.KindValidation, "tts:validate",
			"unsupported model %q (supported: %s)", req.Model, aggregate.ModelNames())
	}
	if !req.Format.IsKnown() {
		return platformerrors.Newf(platformerrors.KindValidation, "tts:validate",
			"unsupported format %q (supported: %s)", req.Format, aggregate.FormatNames())
	}
	return nil
}

func speedError(speed float64) error {
	return platformerrors.Newf(platformerrors.KindValidation, "tts:validate",
		"speed (-s, --speed) must be between %.2f and %.1f, got %v", aggregate.MinSpeed, aggregate.MaxSpeed, speed)
}
