// Package rag grounds language model answers in chunks retrieved from the index.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mohammad-safakhou/campusbot/internal/logging"
	"github.com/mohammad-safakhou/campusbot/models"
	"github.com/mohammad-safakhou/campusbot/session"
)

const DefaultTopK = 10

var ErrEmptyQuestion = errors.New("question is empty")

// Retriever returns the k chunks most relevant to q.
type Retriever interface {
	Retrieve(ctx context.Context, q string, k int) ([]models.SearchHit, error)
}

// RetrieverFunc adapts a search function such as (*vectorindex.Index).Query.
type RetrieverFunc func(ctx context.Context, q string, k int) ([]models.SearchHit, error)

func (f RetrieverFunc) Retrieve(ctx context.Context, q string, k int) ([]models.SearchHit, error) {
	return f(ctx, q, k)
}

// ChatModel streams an answer for a message list.
type ChatModel interface {
	StreamChat(ctx context.Context, messages []models.ChatMessage, onToken func(string) error) (string, error)
}

type Answerer struct {
	Retriever Retriever
	LLM       ChatModel
	TopK      int
	log       *logrus.Entry
}

func NewAnswerer(retriever Retriever, llm ChatModel, topK int, logger *logrus.Logger) *Answerer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Answerer{Retriever: retriever, LLM: llm, TopK: topK, log: logging.WithComponent(logger, "rag")}
}

// Messages assembles the system prompt, the prior history and the contextual question.
func Messages(history []models.ChatMessage, context, question string) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(history)+2)
	msgs = append(msgs, models.ChatMessage{Role: models.RoleSystem, Content: SystemPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, models.ChatMessage{Role: models.RoleUser, Content: BuildUserMessage(context, question)})
	return msgs
}

// Stream answers question within sess, forwarding tokens to onToken as they arrive.
// The plain question and the full answer are appended to the history only when the turn succeeds.
func (a *Answerer) Stream(ctx context.Context, sess *session.Session, question string, onToken func(string) error) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	hits, err := a.Retriever.Retrieve(ctx, question, a.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}
	a.logger().WithFields(logrus.Fields{"session": sess.ID(), "hits": len(hits)}).Debug("retrieved context")

	answer, err := a.LLM.StreamChat(ctx, Messages(sess.History(), BuildContext(hits), question), onToken)
	if err != nil {
		return answer, fmt.Errorf("chat: %w", err)
	}
	sess.Append(
		models.ChatMessage{Role: models.RoleUser, Content: question},
		models.ChatMessage{Role: models.RoleAssistant, Content: answer},
	)
	return answer, nil
}

// Answer is Stream without a token callback.
func (a *Answerer) Answer(ctx context.Context, sess *session.Session, question string) (string, error) {
	return a.Stream(ctx, sess, question, nil)
}

func (a *Answerer) logger() *logrus.Entry {
	if a.log == nil {
		a.log = logging.WithComponent(nil, "rag")
	}
	return a.log
}
