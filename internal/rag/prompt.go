package rag

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/campusbot/models"
)

const NotFoundReply = "I'm sorry, I couldn't find that information."

const SystemPrompt = "You are a virtual assistant of Ajman University. Answer questions about admission, " +
	"tuition, procedures, scholarships, and campus life. Base every answer solely on the provided context. " +
	"If the answer is not present, reply: \"" + NotFoundReply + "\" " +
	"Do not mention sources or context in your answer."

// BuildContext joins the retrieved chunk texts with blank lines, best hit first.
func BuildContext(hits []models.SearchHit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		if t := strings.TrimSpace(h.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// BuildUserMessage wraps the question with the retrieved context.
func BuildUserMessage(context, question string) string {
	return fmt.Sprintf("%s\n\nUser question: %s\n\n"+
		"Answer the student's question as fully as possible using only the information above. "+
		"If you don't find the answer in the information above, reply: \"%s\"",
		context, question, NotFoundReply)
}
