package service

import (
	"fmt"
	"strings"

	"github.com/nemuri-labs/nemuri/internal/domain"
)

// SystemPrompt is the fixed safety policy sent once per conversation.
// It constrains the assistant to general sleep-hygiene advice, forbids
// diagnosis, and requires escalation language for risk signals.
const SystemPrompt = `あなたは睡眠に関する一般的なアドバイスを提供するチャットボットです。

重要なルール:
1. 睡眠の一般的なアドバイス（睡眠衛生）のみを提供してください
2. 診断・処方は絶対に行わないでください
3. 提案は1〜3個に絞って簡潔に伝えてください
4. 以下の危険兆候が見られる場合は、必ず医療機関の受診を促してください:
   - 強い日中眠気（日常生活に支障をきたす）
   - 睡眠時無呼吸の疑い（いびき、呼吸停止など）
   - 重度の抑うつ症状
   - その他、深刻な健康問題の可能性

回答の最後には、必ず確認質問を1つ含めてください（例：「他に気になる症状はありますか？」「このアドバイスを試してみて、どう感じましたか？」など）。

知識ベースから提供された情報を根拠として使用し、分かりやすく親切に回答してください。`

// knowledgeInstruction precedes the knowledge block in the user turn
const knowledgeInstruction = "以下の知識を参考にして回答してください。"

// PromptAssembler builds the message sequence submitted to the model.
// The formatting is a wire contract with the downstream model; do not
// reorder or truncate.
type PromptAssembler struct{}

func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{}
}

// KnowledgeBlock formats retrieved results as numbered blocks in the
// order given (best match first), joined by blank lines. Zero results
// yield an empty string.
func (a *PromptAssembler) KnowledgeBlock(results []domain.RetrievedResult) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, len(results))
	for i, result := range results {
		blocks[i] = fmt.Sprintf("[知識%d]\n%s", i+1, result.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// UserContent builds the content of the new user turn. Without
// retrieved knowledge the raw message is used verbatim.
func (a *PromptAssembler) UserContent(results []domain.RetrievedResult, message string) string {
	block := a.KnowledgeBlock(results)
	if block == "" {
		return message
	}
	return fmt.Sprintf("%s\n\n%s\n\n---\n\nユーザーの質問: %s", knowledgeInstruction, block, message)
}

// Build returns the full message sequence for model submission: the
// system prompt (prepended exactly once, when history is empty), prior
// turns in temporal order, and the new user turn. The input history is
// not mutated.
func (a *PromptAssembler) Build(history []domain.Message, results []domain.RetrievedResult, message string) []domain.Message {
	messages := make([]domain.Message, 0, len(history)+2)

	if len(history) == 0 {
		messages = append(messages, domain.NewMessage(domain.RoleSystem, SystemPrompt))
	} else {
		messages = append(messages, history...)
	}

	messages = append(messages, domain.NewMessage(domain.RoleUser, a.UserContent(results, message)))
	return messages
}
