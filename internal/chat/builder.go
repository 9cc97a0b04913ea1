package chat

// BuildMessages constructs the message array for a single request.
// The system prompt is added first when present, then the prior turns, then the user prompt.
func BuildMessages(system string, history []Message, userPrompt string) []Message {
	messages := make([]Message, 0, len(history)+2)
	if system != "" {
		messages = append(messages, System(system))
	}
	messages = append(messages, history...)
	messages = append(messages, User(userPrompt))
	return messages
}

// Conversation is an in-memory ordered sequence of messages. The system
// message, if any, survives Clear.
type Conversation struct {
	system string
	turns  []Message
}

func NewConversation(system string) *Conversation {
	return &Conversation{system: system}
}

// Messages returns the full message list including the system prompt.
func (c *Conversation) Messages() []Message {
	out := make([]Message, 0, len(c.turns)+1)
	if c.system != "" {
		out = append(out, System(c.system))
	}
	return append(out, c.turns...)
}

// Turns returns the user/assistant messages only.
func (c *Conversation) Turns() []Message {
	out := make([]Message, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) AddUser(content string)      { c.turns = append(c.turns, User(content)) }
func (c *Conversation) AddAssistant(content string) { c.turns = append(c.turns, Assistant(content)) }

// DropLast removes the most recent turn. Used to roll back a user message
// whose request failed.
func (c *Conversation) DropLast() {
	if len(c.turns) > 0 {
		c.turns = c.turns[:len(c.turns)-1]
	}
}

func (c *Conversation) Clear() { c.turns = nil }

func (c *Conversation) Len() int { return len(c.turns) }
