package model

// Part is a polymorphic segment of provider-native message content. Concrete
// part types implement the unexported isPart marker, keeping the union
// closed. This is the model-message shape; uimessage.Part is the distinct
// UI-facing shape the chat primitive converts from.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string
	Metadata map[string]any
}

func (TextPart) isPart() {}

// DataPart is a structured data segment.
type DataPart struct {
	Data     map[string]any
	Metadata map[string]any
}

func (DataPart) isPart() {}

// FilePart is a file attachment segment.
type FilePart struct {
	File     FilePartFile
	Metadata map[string]any
}

func (FilePart) isPart() {}

// FilePartFile describes an inlined or externally referenced file.
type FilePartFile struct {
	Bytes    string
	MimeType *string
	Name     *string
	URI      string
}

// FunctionCall describes a tool/function invocation request.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
	Metadata     map[string]any
}

func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
	Metadata         map[string]any
}

func (FunctionResponsePart) isPart() {}

// Content holds a role and an ordered sequence of parts — the flat,
// provider-native message shape used by both the llm primitive (no
// conversion) and the chat primitive (converted from uimessage.Message).
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}
