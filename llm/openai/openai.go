// Package openai implements llm.Model on top of the OpenAI Responses API.
// Any server speaking that API can be targeted through Config.BaseURL.
package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/armatrix/taskagent/llm"
)

// Config configures the provider.
type Config struct {
	Model      string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
}

// Model queries OpenAI-compatible models.
type Model struct {
	client openai.Client
	model  openai.ChatModel
}

var _ llm.Model = (*Model)(nil)

// New creates a Model from cfg.
func New(cfg Config) *Model {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	return &Model{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (m *Model) Name() string { return string(m.model) }

// Query sends one non-streaming Responses request.
func (m *Model) Query(ctx context.Context, req llm.Request) (*llm.Response, error) {
	params := responses.ResponseNewParams{
		Model: m.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: encodeMessages(req.Messages),
		},
	}
	if req.System != "" {
		params.Instructions = openai.String(req.System)
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		params.Tools = encodeTools(req.Tools)
	}

	resp, err := m.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	return decodeResponse(resp), nil
}

func encodeMessages(messages []llm.Message) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleAssistant:
			if msg.Content != "" {
				content := []responses.ResponseOutputMessageContentUnionParam{
					{
						OfOutputText: &responses.ResponseOutputTextParam{
							Text: msg.Content,
							Type: "output_text",
						},
					},
				}
				items = append(items, responses.ResponseInputItemParamOfOutputMessage(content, "", ""))
			}
			for _, call := range msg.ToolCalls {
				args := string(call.Arguments)
				if args == "" {
					args = "{}"
				}
				items = append(items, responses.ResponseInputItemParamOfFunctionCall(args, call.ID, call.Name))
			}
		case llm.RoleTool:
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(msg.ToolCallID, msg.Content))
		default:
			content := []responses.ResponseInputContentUnionParam{
				responses.ResponseInputContentParamOfInputText(msg.Content),
			}
			if msg.Role == llm.RoleSystem {
				items = append(items, responses.ResponseInputItemParamOfInputMessage(content, "system"))
				continue
			}
			items = append(items, responses.ResponseInputItemParamOfInputMessage(content, "user"))
		}
	}
	return items
}

func encodeTools(specs []llm.ToolSpec) []responses.ToolUnionParam {
	tools := make([]responses.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        spec.Name,
				Strict:      openai.Bool(false),
				Description: openai.String(spec.Description),
				Parameters:  spec.Parameters,
			},
		})
	}
	return tools
}

func decodeResponse(resp *responses.Response) *llm.Response {
	out := &llm.Response{
		StopReason: string(resp.Status),
		Usage: llm.Usage{
			InputTokens:          resp.Usage.InputTokens,
			OutputTokens:         resp.Usage.OutputTokens,
			CacheReadInputTokens: resp.Usage.InputTokensDetails.CachedTokens,
		},
	}
	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			for _, content := range item.AsMessage().Content {
				if content.Type == "output_text" {
					out.Text += content.AsOutputText().Text
				}
			}
		case "function_call":
			call := item.AsFunctionCall()
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        call.CallID,
				Name:      call.Name,
				Arguments: []byte(call.Arguments),
			})
		}
	}
	if len(out.ToolCalls) > 0 {
		out.StopReason = "tool_use"
	}
	return out
}
