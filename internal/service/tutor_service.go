package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pylearn_backend/internal/config"
	"pylearn_backend/internal/model"
	"pylearn_backend/internal/repository"
	"pylearn_backend/pkg/logger"
	"pylearn_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const tutorHistoryLimit = 10

const tutorSystemPrompt = "You are a friendly Python tutor for beginners. " +
	"Explain concepts step by step, prefer short runnable examples, and never " +
	"hand over a full solution to an exercise the student is still working on. " +
	"Answer in the language the student writes in."

// quotaFallbackAnswer is served when the daily upstream quota is exhausted,
// so the tutor endpoint degrades instead of failing.
const quotaFallbackAnswer = "The AI tutor has reached its daily request limit. " +
	"Your question was saved; please try again after midnight. In the meantime, " +
	"re-reading the lesson material or the exercise hints often helps."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// TutorService answers student questions through an OpenAI-compatible chat
// completions endpoint, behind the daily RateGate. Conversations are
// persisted per (user, session) so follow-up questions carry context.
type TutorService struct {
	TutorRepo *repository.TutorRepository
	Gate      *RateGate
	cfg       config.AIConfig
	client    *http.Client
}

func NewTutorService(tutorRepo *repository.TutorRepository, gate *RateGate, cfg config.AIConfig) *TutorService {
	return &TutorService{
		TutorRepo: tutorRepo,
		Gate:      gate,
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// TutorReply is the answer envelope: the text plus whether it came from the
// model or from the quota fallback.
type TutorReply struct {
	Answer    string     `json:"answer"`
	SessionID string     `json:"sessionId"`
	Fallback  bool       `json:"fallback"`
	Quota     GateStatus `json:"quota"`
}

// Ask records the student's question, consults the rate gate, and either
// asks the upstream model (with recent session history as context) or
// serves the fallback answer. The question is persisted in both cases so
// the session survives quota exhaustion.
func (s *TutorService) Ask(ctx context.Context, user *model.User, sessionID, question string) (*TutorReply, error) {
	if err := s.TutorRepo.CreateMessage(&model.TutorMessage{
		UserID:    user.ID,
		SessionID: sessionID,
		Role:      model.TutorRoleUser,
		Content:   question,
	}); err != nil {
		return nil, err
	}

	allowed, status, err := s.Gate.Allow(ctx)
	if err != nil {
		// Treat a broken gate like an exhausted one: degrade, don't fail.
		logger.Log.Error("rate gate unavailable, serving fallback", zap.Error(err))
		monitoring.AIRequestCounter.WithLabelValues("gate_error").Inc()
		return s.fallbackReply(user, sessionID, status)
	}
	if !allowed {
		monitoring.AIRequestCounter.WithLabelValues("rate_limited").Inc()
		return s.fallbackReply(user, sessionID, status)
	}

	history, err := s.TutorRepo.FindSessionMessages(user.ID, sessionID, tutorHistoryLimit)
	if err != nil {
		return nil, err
	}

	messages := make([]chatMessage, 0, len(history)+1)
	messages = append(messages, chatMessage{Role: "system", Content: tutorSystemPrompt})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	answer, err := s.complete(ctx, messages)
	if err != nil {
		logger.Log.Error("AI tutor upstream call failed", zap.Error(err))
		monitoring.AIRequestCounter.WithLabelValues("upstream_error").Inc()
		return s.fallbackReply(user, sessionID, status)
	}
	monitoring.AIRequestCounter.WithLabelValues("ok").Inc()

	if err := s.TutorRepo.CreateMessage(&model.TutorMessage{
		UserID:    user.ID,
		SessionID: sessionID,
		Role:      model.TutorRoleAssistant,
		Content:   answer,
	}); err != nil {
		return nil, err
	}

	return &TutorReply{Answer: answer, SessionID: sessionID, Quota: status}, nil
}

func (s *TutorService) fallbackReply(user *model.User, sessionID string, status GateStatus) (*TutorReply, error) {
	if err := s.TutorRepo.CreateMessage(&model.TutorMessage{
		UserID:    user.ID,
		SessionID: sessionID,
		Role:      model.TutorRoleAssistant,
		Content:   quotaFallbackAnswer,
	}); err != nil {
		return nil, err
	}
	return &TutorReply{
		Answer:    quotaFallbackAnswer,
		SessionID: sessionID,
		Fallback:  true,
		Quota:     status,
	}, nil
}

// GetHistory returns the session transcript in chronological order.
func (s *TutorService) GetHistory(userID uint, sessionID string, limit int) ([]model.TutorMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.TutorRepo.FindSessionMessages(userID, sessionID, limit)
}

// QuotaStatus reports the day's remaining AI budget without consuming it.
func (s *TutorService) QuotaStatus(ctx context.Context) (GateStatus, error) {
	return s.Gate.PeekStatus(ctx)
}

// evaluationVerdict is the structured judgment the model is asked to return
// for a code submission.
type evaluationVerdict struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

// EvaluateSubmission asks the model to judge a submission against the
// exercise prompt. Consumes one quota slot. When the quota is exhausted or
// the upstream fails, it returns ok=false with an explanatory feedback
// string and no error: the caller records the submission as unevaluated
// rather than losing it.
func (s *TutorService) EvaluateSubmission(ctx context.Context, exercise *model.Exercise, code string) (bool, string, error) {
	allowed, _, err := s.Gate.Allow(ctx)
	if err != nil {
		logger.Log.Error("rate gate unavailable, skipping evaluation", zap.Error(err))
		monitoring.AIRequestCounter.WithLabelValues("gate_error").Inc()
		return false, "Automatic evaluation is unavailable right now. Your code was saved; please resubmit shortly.", nil
	}
	if !allowed {
		monitoring.AIRequestCounter.WithLabelValues("rate_limited").Inc()
		return false, "Automatic evaluation is unavailable right now (daily AI limit reached). Your code was saved; resubmit after midnight.", nil
	}

	prompt := fmt.Sprintf(
		"Evaluate this Python solution.\n\nExercise: %s\n\nTask:\n%s\n\nStudent code:\n```python\n%s\n```\n\n"+
			`Reply with JSON only: {"is_correct": bool, "feedback": "short feedback for the student"}`,
		exercise.Title, exercise.Prompt, code)

	raw, err := s.complete(ctx, []chatMessage{
		{Role: "system", Content: "You are a strict but encouraging Python code reviewer. Reply with JSON only."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		logger.Log.Error("submission evaluation failed", zap.Error(err))
		monitoring.AIRequestCounter.WithLabelValues("upstream_error").Inc()
		return false, "Automatic evaluation failed. Your code was saved; please resubmit shortly.", nil
	}
	monitoring.AIRequestCounter.WithLabelValues("ok").Inc()

	var verdict evaluationVerdict
	if err := json.Unmarshal([]byte(extractJSON(raw)), &verdict); err != nil {
		logger.Log.Warn("unparseable evaluation verdict", zap.String("raw", raw))
		return false, "The evaluator returned an unreadable verdict. Your code was saved; please resubmit.", nil
	}
	return verdict.IsCorrect, verdict.Feedback, nil
}

// complete performs one non-streaming chat completion call.
func (s *TutorService) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{Model: s.cfg.Model, Messages: messages})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(raw))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// extractJSON strips markdown code fences some models wrap JSON replies in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
	}
	return strings.TrimSpace(raw)
}
