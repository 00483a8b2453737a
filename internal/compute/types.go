package compute

import "fmt"

// Request carries the per-turn inputs of one downstream invocation. Static
// model and runtime parameters come from configuration, not from here.
type Request struct {
	MessageID    string
	UserID       string
	SessionID    string
	Prompt       string
	FeatureLabel string
}

// Reply is the normalized successful outcome of one invocation.
type Reply struct {
	Text    string
	UseTime float64
}

// BackendError is an error the backend itself reported inside an otherwise
// well-formed response. It is terminal for the turn; callers reply with the
// message and do not retry.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("compute backend: %s", e.Message)
}

// wire shapes of the compute gateway protocol.

type wireRequest struct {
	APIKey        string  `json:"apikey"`
	WSURL         string  `json:"ws_url"`
	MsgID         string  `json:"msgid"`
	UserID        string  `json:"user_id"`
	ChatName      string  `json:"chat_name"`
	Prompt        string  `json:"prompt"`
	MaxTokens     int     `json:"max_tokens"`
	Model         string  `json:"model"`
	QAMode        bool    `json:"qa_mode"`
	MultiRound    bool    `json:"multi_round"`
	Trace         bool    `json:"trace"`
	TemplateID    string  `json:"template_id"`
	Temperature   float64 `json:"temperature"`
	HideRefDoc    bool    `json:"hide_ref_doc"`
	FeatureConfig string  `json:"feature_config"`
	SystemRole    string  `json:"system_role"`
	UserRole      string  `json:"user_role"`
}

type wireResponse struct {
	StatusCode   int        `json:"statusCode"`
	Body         []wireBody `json:"body"`
	ErrorMessage string     `json:"errorMessage"`
}

type wireBody struct {
	Choices []wireChoice `json:"choices"`
	UseTime float64      `json:"useTime"`
}

type wireChoice struct {
	Text string `json:"text"`
}
