package illustrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/llm"
)

// User-facing messages
const (
	ReselectKeyMessage   = "Vui lòng chọn lại API Key (Paid Project) để tiếp tục."
	FallbackErrorMessage = "Có lỗi xảy ra khi tạo ảnh. Vui lòng thử lại."
	NoImageMessage       = "Không thể tạo hình ảnh. Vui lòng thử lại."
)

var (
	// ErrEmptyPrompt is returned for an empty prompt; no request is sent
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrBusy is returned while a generation is in flight
	ErrBusy = errors.New("an image is already being generated")

	// ErrKeyNotSelected is returned when re-verification after the key prompt still finds no key
	ErrKeyNotSelected = errors.New("no paid API key selected")

	// ErrAbandoned is returned when the in-flight generation was abandoned
	ErrAbandoned = errors.New("generation abandoned")

	// ErrNoImage is returned by Download when there is no current image
	ErrNoImage = errors.New("no image to download")
)

// State is the lifecycle state of the panel
type State string

const (
	StateIdle       State = "idle"
	StateKeyCheck   State = "key_check"
	StateGenerating State = "generating"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Config controls the key gate behaviour of the panel
type Config struct {
	// ReverifyAfterPrompt re-checks the key after prompting instead of proceeding optimistically
	ReverifyAfterPrompt bool
}

// Snapshot is a copy of the panel's visible state
type Snapshot struct {
	State      State                  `json:"state"`
	Loading    bool                   `json:"loading"`
	Prompt     string                 `json:"prompt,omitempty"`
	Resolution models.ImageResolution `json:"resolution"`
	Image      string                 `json:"image,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Panel drives the image generator: it gates on the API key, runs one
// generation at a time and keeps the latest image or error message.
type Panel struct {
	generator interfaces.ImageGenerator
	gate      interfaces.KeyGate
	config    Config
	logger    arbor.ILogger

	mu         sync.Mutex
	busy       bool
	loading    bool
	state      State
	prompt     string
	resolution models.ImageResolution
	image      string
	errMessage string
	cancel     context.CancelFunc
	abandoned  bool
	updatedAt  time.Time
}

// NewPanel creates an idle panel
func NewPanel(generator interfaces.ImageGenerator, gate interfaces.KeyGate, config Config, logger arbor.ILogger) *Panel {
	return &Panel{
		generator:  generator,
		gate:       gate,
		config:     config,
		logger:     logger,
		state:      StateIdle,
		resolution: models.DefaultImageResolution,
		updatedAt:  time.Now(),
	}
}

// Generate produces an image for prompt at resolution.
//
// When the gate reports no key it prompts for one and proceeds without
// re-checking, unless ReverifyAfterPrompt is set. A billing-entity failure
// prompts again and shows ReselectKeyMessage; any other failure shows the
// provider message, else FallbackErrorMessage. The returned error is the
// generation error; the loading flag is cleared on every path.
func (p *Panel) Generate(ctx context.Context, prompt string, resolution models.ImageResolution) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return ErrBusy
	}
	p.busy = true
	p.abandoned = false
	p.state = StateKeyCheck
	p.prompt = prompt
	p.resolution = resolution
	genCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.touch()
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.busy = false
		p.loading = false
		p.cancel = nil
		if p.state == StateKeyCheck || p.state == StateGenerating {
			p.state = StateIdle
		}
		p.touch()
		p.mu.Unlock()
	}()

	if !p.gate.Check(genCtx) {
		p.promptForKey(genCtx)

		if p.config.ReverifyAfterPrompt && !p.gate.Check(genCtx) {
			p.mu.Lock()
			p.state = StateFailed
			p.errMessage = ReselectKeyMessage
			p.mu.Unlock()
			p.logger.Info().Msg("Image generation stopped, no API key selected after prompt")
			return ErrKeyNotSelected
		}
	}

	p.mu.Lock()
	p.loading = true
	p.state = StateGenerating
	p.errMessage = ""
	p.image = ""
	p.mu.Unlock()

	startTime := time.Now()
	payload, err := p.generator.GenerateImage(genCtx, prompt, resolution)

	// A successful image is kept even when the abandon arrived late
	p.mu.Lock()
	abandoned := p.abandoned && err != nil
	p.mu.Unlock()

	if abandoned {
		p.logger.Info().Dur("duration", time.Since(startTime)).Msg("Image generation abandoned")
		return ErrAbandoned
	}

	if err != nil {
		message := failureMessage(err)
		if llm.IsBillingEntityError(err) {
			p.promptForKey(genCtx)
			message = ReselectKeyMessage
		}

		p.mu.Lock()
		p.state = StateFailed
		p.errMessage = message
		p.mu.Unlock()

		p.logger.Warn().
			Err(err).
			Str("message", message).
			Dur("duration", time.Since(startTime)).
			Msg("Image generation failed")
		return err
	}

	p.mu.Lock()
	p.state = StateSuccess
	p.image = payload
	p.mu.Unlock()

	p.logger.Info().
		Str("resolution", string(resolution)).
		Dur("duration", time.Since(startTime)).
		Msg("Image generated")
	return nil
}

// Abandon cancels the in-flight generation and reports whether one was running
func (p *Panel) Abandon() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.busy || p.cancel == nil {
		return false
	}
	p.abandoned = true
	p.cancel()
	return true
}

// Snapshot returns a copy of the visible state
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		State:      p.state,
		Loading:    p.loading,
		Prompt:     p.prompt,
		Resolution: p.resolution,
		Image:      p.image,
		Error:      p.errMessage,
	}
}

// Busy reports whether a generation is in flight
func (p *Panel) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// UpdatedAt returns the time of the last state change
func (p *Panel) UpdatedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updatedAt
}

// Download returns the current image as an attachment
func (p *Panel) Download() (*Download, error) {
	p.mu.Lock()
	image := p.image
	p.mu.Unlock()

	if image == "" {
		return nil, ErrNoImage
	}
	return NewDownload(image, time.Now())
}

func (p *Panel) promptForKey(ctx context.Context) {
	if err := p.gate.Prompt(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("API key selection prompt failed")
	}
}

// touch must be called with p.mu held
func (p *Panel) touch() {
	p.updatedAt = time.Now()
}

// failureMessage maps a generation error to the text shown to the user
func failureMessage(err error) string {
	if errors.Is(err, llm.ErrNoImageProduced) {
		return NoImageMessage
	}
	if message := strings.TrimSpace(llm.ProviderMessage(err)); message != "" {
		return message
	}
	return FallbackErrorMessage
}
