// Package card builds the interactive reply card sent back for text turns.
package card

import (
	"encoding/json"
	"fmt"
)

// HistoryClearedSentinel is the verbatim backend reply meaning the
// conversation history was reset. It renders as a bare card: body only, no
// footnote and no action row.
const HistoryClearedSentinel = "已清空历史会话"

// Action values carried in button clicks, read back by interaction handlers.
const (
	ActionLike          = "like"
	ActionDislike       = "dislike"
	ActionShowReference = "show_reference"
	ActionNewSession    = "new_session"
)

// Input is everything the card needs for one reply.
type Input struct {
	Body    string
	OpenID  string
	UseTime float64
}

type cardPayload struct {
	Config   cardConfig    `json:"config"`
	Elements []cardElement `json:"elements"`
}

type cardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

type cardElement struct {
	Tag      string       `json:"tag"`
	Text     *cardText    `json:"text,omitempty"`
	Elements []cardText   `json:"elements,omitempty"`
	Actions  []cardButton `json:"actions,omitempty"`
}

type cardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type cardButton struct {
	Tag   string            `json:"tag"`
	Text  cardText          `json:"text"`
	Type  string            `json:"type"`
	Value map[string]string `json:"value"`
}

// Build assembles the interactive card JSON. The body is rendered as lark_md
// behind an at-mention of the sender; a sentinel body drops the footnote and
// action row entirely.
func Build(in Input) ([]byte, error) {
	body := cardElement{
		Tag: "div",
		Text: &cardText{
			Tag:     "lark_md",
			Content: fmt.Sprintf("<at id=%s></at> %s", in.OpenID, in.Body),
		},
	}

	payload := cardPayload{
		Config:   cardConfig{WideScreenMode: true},
		Elements: []cardElement{body},
	}
	if in.Body == HistoryClearedSentinel {
		return json.Marshal(payload)
	}

	payload.Elements = append(payload.Elements,
		cardElement{
			Tag: "note",
			Elements: []cardText{
				{Tag: "plain_text", Content: fmt.Sprintf("耗时 %.1fs", in.UseTime)},
			},
		},
		cardElement{
			Tag: "action",
			Actions: []cardButton{
				button("👍", ActionLike),
				button("👎", ActionDislike),
				button("查看参考文档", ActionShowReference),
				button("新会话", ActionNewSession),
			},
		},
	)
	return json.Marshal(payload)
}

func button(label, action string) cardButton {
	return cardButton{
		Tag:   "button",
		Text:  cardText{Tag: "plain_text", Content: label},
		Type:  "default",
		Value: map[string]string{"action": action},
	}
}
