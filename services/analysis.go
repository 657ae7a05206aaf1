package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"paper-board/config"
	"paper-board/models"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoAPIKey is returned when analysis is requested without a configured
// AI credential. Papers then stay pending until the cron sweep finds a key.
var ErrNoAPIKey = errors.New("no AI API key configured")

const analysisSystemPrompt = "You are an expert scientific evaluator. " +
	"You assess research papers for both academic rigor and business relevance."

const analysisUserPrompt = `Analyze the following research paper.

Respond ONLY with valid JSON in this exact schema:

{
    "business_score": number,
    "academic_score": number,
    "summary": "string",
    "strengths": "string",
    "weaknesses": "string"
}

Scores range from 0 to 100.

Title: %s

Domain: %s

Abstract:
%s`

// paperAssessment is the JSON contract the oracle must answer with.
type paperAssessment struct {
	BusinessScore float64 `json:"business_score"`
	AcademicScore float64 `json:"academic_score"`
	Summary       string  `json:"summary"`
	Strengths     string  `json:"strengths"`
	Weaknesses    string  `json:"weaknesses"`
}

// AnalysisService calls the external AI oracle and writes its verdict back
// to the paper row. Re-running an analysis overwrites the previous one.
type AnalysisService struct {
	db      *gorm.DB
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

// NewAnalysisService builds the oracle wrapper. A nil client (no API key)
// is valid; analysis then reports ErrNoAPIKey.
func NewAnalysisService(cfg *config.Config, db *gorm.DB, log *zap.Logger) *AnalysisService {
	var client *openai.Client
	if cfg.OpenAIAPIKey != "" {
		client = openai.NewClient(cfg.OpenAIAPIKey)
	}
	return &AnalysisService{
		db:      db,
		client:  client,
		model:   cfg.OpenAIModel,
		timeout: time.Duration(cfg.AnalysisTimeoutSec) * time.Second,
		log:     log,
	}
}

var codeFenceOpen = regexp.MustCompile("(?i)```(json|python)?")

// cleanJSONOutput strips markdown code fences so the model output becomes
// parseable JSON.
func cleanJSONOutput(text string) string {
	text = codeFenceOpen.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AnalyzePaper runs one assessment and persists the result. The paper ends
// in ai_status=done on success and ai_status=failed on any oracle or decode
// error.
func (s *AnalysisService) AnalyzePaper(ctx context.Context, paperID uint) error {
	if s.client == nil {
		return ErrNoAPIKey
	}

	var paper models.Paper
	if err := s.db.WithContext(ctx).First(&paper, paperID).Error; err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(analysisUserPrompt, paper.Title, paper.Domain, paper.Abstract)},
		},
	})
	if err != nil {
		s.markFailed(paper.ID)
		return fmt.Errorf("AI call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		s.markFailed(paper.ID)
		return errors.New("AI response contained no choices")
	}

	cleaned := cleanJSONOutput(resp.Choices[0].Message.Content)
	var out paperAssessment
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		s.markFailed(paper.ID)
		return fmt.Errorf("AI response JSON decode failed: %w", err)
	}

	business := clampScore(out.BusinessScore)
	academic := clampScore(out.AcademicScore)
	updates := map[string]interface{}{
		"ai_status":         models.AIStatusDone,
		"ai_business_score": business,
		"ai_academic_score": academic,
		"ai_summary":        out.Summary,
		"ai_strengths":      out.Strengths,
		"ai_weaknesses":     out.Weaknesses,
		"ai_raw_payload":    datatypes.JSON(cleaned),
	}
	if err := s.db.Model(&models.Paper{}).Where("id = ?", paper.ID).Updates(updates).Error; err != nil {
		return err
	}

	s.log.Info("Paper analysis completed",
		zap.Uint("paper_id", paper.ID),
		zap.Float64("business_score", business),
		zap.Float64("academic_score", academic))
	return nil
}

func (s *AnalysisService) markFailed(paperID uint) {
	if err := s.db.Model(&models.Paper{}).
		Where("id = ?", paperID).
		Update("ai_status", models.AIStatusFailed).Error; err != nil {
		s.log.Error("Failed to mark paper analysis as failed", zap.Uint("paper_id", paperID), zap.Error(err))
	}
}

// SweepPending re-runs analysis for every pending or failed paper. Used by
// the cron schedule; returns the number of papers analyzed successfully.
func (s *AnalysisService) SweepPending(ctx context.Context) (int, error) {
	if s.client == nil {
		s.log.Warn("Analysis sweep skipped: no AI API key configured")
		return 0, nil
	}

	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Paper{}).
		Where("ai_status IN ?", []string{models.AIStatusPending, models.AIStatusFailed}).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if err := s.AnalyzePaper(ctx, id); err != nil {
			s.log.Warn("Analysis sweep entry failed", zap.Uint("paper_id", id), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}
