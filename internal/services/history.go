package services

import "github.com/vulval/vulval-backend/internal/llm"

// buildHistory assembles the model-facing turns for one exchange. The LLM
// is stateless, so the rolling summary is replayed as a prior user/model
// turn pair ahead of the new message. Order is fixed: context turns always
// precede the fresh user turn.
func buildHistory(summary, userText string) []llm.Turn {
	turns := make([]llm.Turn, 0, 3)

	if summary != "" {
		turns = append(turns,
			llm.Turn{
				Role:    llm.RoleUser,
				Content: "Previous conversation summary: " + summary,
			},
			llm.Turn{
				Role:    llm.RoleModel,
				Content: "Understood. I will continue the conversation with that context in mind.",
			},
		)
	}

	return append(turns, llm.Turn{Role: llm.RoleUser, Content: userText})
}
