package recommend

// Option is one selectable answer for a quiz question.
type Option struct {
	Value string
	Label string
}

// Question is a single step of the preference quiz.
type Question struct {
	ID      string
	Prompt  string
	Options []Option
}

var questions = []Question{
	{
		ID:     "category",
		Prompt: "What type of food are you looking for?",
		Options: []Option{
			{Value: "beverage", Label: "☕ Beverage"},
			{Value: "sweet", Label: "🍰 Sweet/Dessert"},
			{Value: "savory", Label: "🍔 Savory/Meal"},
			{Value: "snack", Label: "🥨 Snack"},
		},
	},
	{
		ID:     "filling",
		Prompt: "How filling should it be?",
		Options: []Option{
			{Value: "light", Label: "Light/Small"},
			{Value: "medium", Label: "Medium"},
			{Value: "heavy", Label: "Heavy/Full Meal"},
		},
	},
	{
		ID:     "temperature",
		Prompt: "What temperature do you prefer?",
		Options: []Option{
			{Value: "hot", Label: "🔥 Hot"},
			{Value: "cold", Label: "❄️ Cold"},
			{Value: "room", Label: "🌡️ Room Temperature"},
		},
	},
	{
		ID:     "timeOfDay",
		Prompt: "When are you planning to eat this?",
		Options: []Option{
			{Value: "breakfast", Label: "🌅 Breakfast"},
			{Value: "lunch", Label: "☀️ Lunch"},
			{Value: "dinner", Label: "🌙 Dinner"},
			{Value: "anytime", Label: "⏰ Anytime/Snack"},
		},
	},
	{
		ID:     "flavor",
		Prompt: "What flavor profile appeals to you?",
		Options: []Option{
			{Value: "rich", Label: "Rich/Indulgent"},
			{Value: "fresh", Label: "Fresh/Light"},
			{Value: "savory", Label: "Savory/Umami"},
			{Value: "sweet", Label: "Sweet"},
		},
	},
}

// Questions returns the quiz questions in presentation order.
func Questions() []Question {
	return questions
}

// NumQuestions is the quiz length.
func NumQuestions() int {
	return len(questions)
}
