package tts

import (
	"os"
	"strings"
	"unicode/utf8"

	platformerrors "tts-mcp-go/internal/platform/errors"
)

// LoadText returns the text to synthesize. When filePath is set the file is
// read and text is ignored.
func LoadText(text, filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return text, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", platformerrors.Wrap(platformerrors.KindIO, "tts:load-text", "file read failed", err)
	}
	if !utf8.Valid(data) {
		return "", platformerrors.Newf(platformerrors.KindValidation, "tts:load-text", "file %s is not valid UTF-8 text", filePath)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return "", platformerrors.Newf(platformerrors.KindValidation, "tts:load-text", "file %s is empty", filePath)
	}
	return content, nil
}
