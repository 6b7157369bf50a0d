package chat

import "github.com/BaSui01/docchat/tools"

// EventType 标记事件流中单个事件的种类。
type EventType string

const (
	// EventToken 携带最终回答的一段增量文本。
	EventToken EventType = "token"
	// EventTool 携带工具执行产生的侧信道数据(检索来源、搜索引用等)。
	EventTool EventType = "tool"
	// EventStatus 携带面向用户的进度提示,例如子代理的分析阶段。
	EventStatus EventType = "status"
	// EventError 携带终止本轮的错误,随后通道关闭。
	EventError EventType = "error"
)

// StreamEvent 是对话轮次事件流的标签联合:每个事件只填充与 Type
// 对应的字段。token 与侧信道事件交错出现在同一通道上,顺序即产生
// 顺序。
type StreamEvent struct {
	Type   EventType    `json:"type"`
	Token  string       `json:"token,omitempty"`
	Tool   *tools.Event `json:"tool,omitempty"`
	Status string       `json:"status,omitempty"`
	Err    error        `json:"-"`
}

func tokenEvent(s string) StreamEvent { return StreamEvent{Type: EventToken, Token: s} }

func toolEvent(name string, data any) StreamEvent {
	return StreamEvent{Type: EventTool, Tool: &tools.Event{ToolName: name, Data: data}}
}

func statusEvent(s string) StreamEvent { return StreamEvent{Type: EventStatus, Status: s} }

func errorEvent(err error) StreamEvent { return StreamEvent{Type: EventError, Err: err} }
