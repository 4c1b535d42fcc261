package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultState(t *testing.T) {
	chat := DefaultState(FeatureChatbot)
	assert.Len(t, chat.Messages, 1)
	assert.Equal(t, RoleAssistant, chat.Messages[0].Role)
	assert.Equal(t, ChatGreeting, chat.Messages[0].Content)
	assert.Zero(t, chat.Step)
	assert.False(t, chat.Complete)

	quiz := DefaultState(FeatureQuiz)
	assert.Empty(t, quiz.Messages)
	assert.NotNil(t, quiz.Answers)
}

func TestSubmitAnswerAdvancesAndCompletes(t *testing.T) {
	s := DefaultState(FeatureQuiz)
	total := 3

	assert.False(t, s.SubmitAnswer("q1", "a", total))
	assert.Equal(t, 1, s.Step)
	assert.False(t, s.SubmitAnswer("q2", "b", total))
	assert.True(t, s.SubmitAnswer("q3", "c", total))
	assert.True(t, s.Complete)
	assert.Equal(t, map[string]string{"q1": "a", "q2": "b", "q3": "c"}, s.Answers)

	// Answers after completion are ignored.
	assert.False(t, s.SubmitAnswer("q4", "d", total))
	assert.Equal(t, 3, s.Step)
}

func TestBack(t *testing.T) {
	s := DefaultState(FeatureQuiz)
	total := 3

	assert.False(t, s.Back(), "cannot go back from the first question")

	s.SubmitAnswer("q1", "a", total)
	s.SubmitAnswer("q2", "b", total)
	assert.True(t, s.Back())
	assert.Equal(t, 1, s.Step)

	// Re-answering overwrites the previous answer.
	s.SubmitAnswer("q2", "changed", total)
	assert.Equal(t, "changed", s.Answers["q2"])

	s.SubmitAnswer("q3", "c", total)
	assert.True(t, s.Complete)
	assert.False(t, s.Back(), "cannot go back after completion")
}

func TestSubmitAnswerNilAnswers(t *testing.T) {
	var s ConversationState
	assert.False(t, s.SubmitAnswer("q1", "a", 2))
	assert.Equal(t, "a", s.Answers["q1"])
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "chatbotState_42", Key{Feature: FeatureChatbot, UserID: 42}.String())
	assert.Equal(t, "quizState_7", Key{Feature: FeatureQuiz, UserID: 7}.String())
}
