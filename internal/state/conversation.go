// Package state persists per-user conversation state for the chatbot and
// quiz flows. The store is keyed by (feature, user) and holds a versioned
// snapshot; stale writes are rejected so a slow submission cannot clobber
// a newer one.
package state

import (
	"foodseer-bot/internal/models"
	"foodseer-bot/internal/recommend"
)

type Feature string

const (
	FeatureChatbot Feature = "chatbot"
	FeatureQuiz    Feature = "quiz"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContentRecommendationCard marks a system message whose payload is the
// embedded Food rather than text.
const ContentRecommendationCard = "recommendation-card"

const ChatGreeting = "Hi! I'm FoodSeer. Tell me what you're craving."

// Message is one entry of the conversation log. Food is set only on
// recommendation-card messages.
type Message struct {
	Role    Role         `json:"role"`
	Content string       `json:"content"`
	Food    *models.Food `json:"food,omitempty"`
}

// ConversationState is everything one flow remembers for one user:
// message log, quiz cursor and answers, and the last computed
// recommendation list. Step never decreases within a session except via
// Back, and Restart resets every field at once.
type ConversationState struct {
	Messages        []Message          `json:"messages"`
	Step            int                `json:"step"`
	Answers         map[string]string  `json:"answers"`
	Recommendations []recommend.Scored `json:"recommendations"`
	Complete        bool               `json:"complete"`
}

// DefaultState is the fresh state for a feature: the chatbot opens with
// its greeting, the quiz with an empty answer set at step zero.
func DefaultState(feature Feature) ConversationState {
	s := ConversationState{
		Answers: make(map[string]string),
	}
	if feature == FeatureChatbot {
		s.Messages = []Message{{Role: RoleAssistant, Content: ChatGreeting}}
	}
	return s
}

// Append adds a message to the log.
func (s *ConversationState) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// SubmitAnswer records the answer for the current step and advances the
// cursor. It returns true when the quiz just completed, i.e. the final
// answer was recorded; the caller then computes recommendations. Answers
// after completion are ignored.
func (s *ConversationState) SubmitAnswer(questionID, value string, total int) bool {
	if s.Complete || s.Step >= total {
		return false
	}
	if s.Answers == nil {
		s.Answers = make(map[string]string)
	}
	s.Answers[questionID] = value
	s.Step++
	if s.Step < total {
		return false
	}
	s.Complete = true
	return true
}

// Back moves the cursor to the previous question without discarding the
// answer already recorded there; re-answering overwrites it. Going back
// is a no-op at step zero or after completion.
func (s *ConversationState) Back() bool {
	if s.Complete || s.Step == 0 {
		return false
	}
	s.Step--
	return true
}
