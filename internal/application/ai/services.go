package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/clarify/internal/domain/ai"
	"github.com/bryanwahyu/clarify/internal/domain/homework"
	"github.com/bryanwahyu/clarify/internal/infra/ai/prompt"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one inference call.
const DefaultTimeout = 60 * time.Second

type Service struct {
	client  ai.Client
	log     *zap.Logger
	timeout time.Duration
}

func NewService(client ai.Client, log *zap.Logger, timeout time.Duration) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{client: client, log: log, timeout: timeout}
}

// Analyze runs one inference call and parses its output into a Result.
// Every failure matches ai.ErrAnalysisFailure.
func (s *Service) Analyze(ctx context.Context, req homework.Request) (homework.Result, error) {
	if err := req.Validate(); err != nil {
		return homework.Result{}, err
	}

	p := ai.Prompt{Text: prompt.Analysis(req), JSON: true}
	if req.Image != nil {
		p.Image = &ai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data}
	}

	raw, err := s.generate(ctx, p)
	if err != nil {
		return homework.Result{}, err
	}

	res, err := s.parse(raw)
	if err != nil {
		s.log.Error("malformed model response",
			zap.String("provider", s.client.Name()),
			zap.String("raw", raw),
			zap.Error(err),
		)
		return homework.Result{}, err
	}
	return res, nil
}

// FollowUp answers a question about an earlier explanation in plain text.
func (s *Service) FollowUp(ctx context.Context, question, priorExplanation string, lang homework.Language) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", homework.ErrInvalidRequest)
	}
	if !lang.Valid() {
		return "", fmt.Errorf("%w: unsupported target language %q", homework.ErrInvalidRequest, lang)
	}

	raw, err := s.generate(ctx, ai.Prompt{Text: prompt.FollowUp(question, priorExplanation, lang)})
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer from %s", ai.ErrAnalysisFailure, s.client.Name())
	}
	return answer, nil
}

func (s *Service) generate(ctx context.Context, p ai.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Generate(ctx, p)
	if err != nil {
		s.log.Warn("inference call failed", zap.String("provider", s.client.Name()), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s timed out after %s: %w", ai.ErrAnalysisFailure, s.client.Name(), s.timeout, err)
		}
		return "", fmt.Errorf("%w: %s: %w", ai.ErrAnalysisFailure, s.client.Name(), err)
	}
	return raw, nil
}

func (s *Service) parse(raw string) (homework.Result, error) {
	text, err := Sanitize(raw)
	if err != nil {
		return homework.Result{}, err
	}
	res, err := ParseResult(text)
	if err != nil {
		var mre *ai.MalformedResponseError
		if errors.As(err, &mre) {
			mre.Raw = raw
		}
		return homework.Result{}, err
	}
	return res, nil
}
