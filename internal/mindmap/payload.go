package mindmap

import (
	"encoding/json"
	"strings"
)

// Language selects one tree of a dual-language payload.
type Language string

const (
	Chinese Language = "chinese"
	English Language = "english"

	DefaultLanguage = Chinese
)

// ParseLanguage maps a query or UI value to a Language, defaulting to Chinese.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "en":
		return English
	default:
		return Chinese
	}
}

// Other returns the fallback language.
func (l Language) Other() Language {
	if l == English {
		return Chinese
	}
	return English
}

// Payload is the mind-map field of an upload response: either a dual-language
// object with "chinese"/"english" trees or a legacy single tree.
type Payload struct {
	Chinese any
	English any
	Legacy  any
	dual    bool
}

// ParsePayload classifies a decoded mind-map value. An object carrying either
// language key is treated as dual-language.
func ParsePayload(raw any) Payload {
	if obj, ok := raw.(map[string]any); ok {
		zh, hasZh := obj[string(Chinese)]
		en, hasEn := obj[string(English)]
		if hasZh || hasEn {
			return Payload{Chinese: zh, English: en, dual: true}
		}
	}
	return Payload{Legacy: raw}
}

// DualPayload builds a dual-language payload.
func DualPayload(zh, en any) Payload {
	return Payload{Chinese: zh, English: en, dual: true}
}

// IsDual reports whether language selection applies.
func (p Payload) IsDual() bool { return p.dual }

// IsEmpty reports whether there is no tree at all.
func (p Payload) IsEmpty() bool {
	if p.dual {
		return p.Chinese == nil && p.English == nil
	}
	return p.Legacy == nil
}

// Has reports whether the payload carries a tree for lang.
func (p Payload) Has(lang Language) bool {
	return p.dual && p.tree(lang) != nil
}

func (p Payload) tree(lang Language) any {
	if lang == English {
		return p.English
	}
	return p.Chinese
}

// Select returns the raw tree to render for lang and the language actually
// used. If the requested tree is absent the other language is used. Legacy
// payloads bypass selection and report an empty language.
func (p Payload) Select(lang Language) (any, Language) {
	if !p.dual {
		return p.Legacy, ""
	}
	if t := p.tree(lang); t != nil {
		return t, lang
	}
	other := lang.Other()
	if t := p.tree(other); t != nil {
		return t, other
	}
	return nil, lang
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if !p.dual {
		return json.Marshal(p.Legacy)
	}
	out := map[string]any{}
	if p.Chinese != nil {
		out[string(Chinese)] = p.Chinese
	}
	if p.English != nil {
		out[string(English)] = p.English
	}
	return json.Marshal(out)
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParsePayload(raw)
	return nil
}
