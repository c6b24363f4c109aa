// intellichat/prompt/assemble.go
package prompt

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"unicode/utf8"

	// Decoders for the accepted upload formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"intellichat/intellichat/config"
	"intellichat/intellichat/types"
	"intellichat/intellichat/utils/logging"

	"go.uber.org/zap"
)

const textFileLabel = "   Text file: \n"

// AttachmentError is a malformed or unreachable image/text source. It is
// surfaced to the caller before any remote model call is made.
type AttachmentError struct {
	Source string
	Err    error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %s: %v", e.Source, e.Err)
}

func (e *AttachmentError) Unwrap() error { return e.Err }

// Input is one turn's raw user input plus optional attachments, as
// delivered by the browser form.
type Input struct {
	Text      string
	ImageData []byte // uploaded image bytes
	ImageURL  string // remote image; takes precedence over ImageData
	TextFile  []byte // uploaded text file bytes
	DataFile  []byte // uploaded CSV/XLSX bytes; accepted but not incorporated
}

// Assembler builds the outgoing user message from a turn's input,
// applying the attachment truncation policy and acquiring images.
type Assembler struct {
	maxChars      int
	maxImageBytes int64
	fetch         *http.Client
}

func NewAssembler(cfg config.Config) *Assembler {
	return &Assembler{
		maxChars:      cfg.MaxAttachmentChars,
		maxImageBytes: cfg.MaxImageBytes,
		fetch:         &http.Client{Timeout: cfg.ImageFetchTimeout},
	}
}

// Assemble produces the user message for one turn: the prompt text with
// any text attachment folded in, optionally followed by one image part.
func (a *Assembler) Assemble(ctx context.Context, in Input) (types.Message, error) {
	text := in.Text

	if len(in.TextFile) > 0 {
		attach, err := a.decodeTextFile(in.TextFile)
		if err != nil {
			return types.Message{}, err
		}
		text += attach
	}

	if len(in.DataFile) > 0 {
		// The CSV/Excel toggle exists in the interface but its content is
		// not read into the prompt.
		logging.AppLogger.Debug("data file attachment ignored", zap.Int("bytes", len(in.DataFile)))
	}

	img, err := a.acquireImage(ctx, in)
	if err != nil {
		return types.Message{}, err
	}
	return types.NewUserMessage(text, img), nil
}

// decodeTextFile decodes the upload as UTF-8 and applies the truncation
// policy: label plus content is capped at maxChars characters with a
// trailing ellipsis when it overflows.
func (a *Assembler) decodeTextFile(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &AttachmentError{Source: "text file", Err: fmt.Errorf("not valid UTF-8")}
	}
	attach := textFileLabel + string(data)
	if runes := []rune(attach); len(runes) > a.maxChars {
		attach = string(runes[:a.maxChars]) + "..."
	}
	return attach, nil
}

// acquireImage resolves the turn's image, if any. A supplied URL wins over
// a direct upload.
func (a *Assembler) acquireImage(ctx context.Context, in Input) (*types.ImagePart, error) {
	switch {
	case in.ImageURL != "":
		data, err := a.fetchImage(ctx, in.ImageURL)
		if err != nil {
			return nil, err
		}
		return decodeImage("image URL", data)
	case len(in.ImageData) > 0:
		return decodeImage("image upload", in.ImageData)
	default:
		return nil, nil
	}
}

func (a *Assembler) fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &AttachmentError{Source: "image URL", Err: err}
	}
	resp, err := a.fetch.Do(req)
	if err != nil {
		return nil, &AttachmentError{Source: "image URL", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &AttachmentError{Source: "image URL", Err: fmt.Errorf("fetch returned status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, a.maxImageBytes+1))
	if err != nil {
		return nil, &AttachmentError{Source: "image URL", Err: err}
	}
	if int64(len(data)) > a.maxImageBytes {
		return nil, &AttachmentError{Source: "image URL", Err: fmt.Errorf("image exceeds %d byte limit", a.maxImageBytes)}
	}
	return data, nil
}

// decodeImage validates that the bytes are a decodable image and captures
// the detected format.
func decodeImage(source string, data []byte) (*types.ImagePart, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &AttachmentError{Source: source, Err: fmt.Errorf("not a decodable image: %w", err)}
	}
	return &types.ImagePart{MIMEType: "image/" + format, Data: data}, nil
}
