package catalog

import (
	"encoding/json"
	"strconv"

	"github.com/marival/stepflow/pkg/schema"
)

// ActionDescriptors returns the browser interaction node types. Each lowers
// to exactly one action fragment.
func ActionDescriptors() []*Descriptor {
	return []*Descriptor{
		{
			Type:        schema.NodeTypeNavigate,
			Category:    CategoryAction,
			Label:       "Navigate",
			Description: "Navigate the browser to a URL",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"url": "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["url"],
				"properties": {
					"url": {"type": "string", "minLength": 1},
					"waitUntil": {"type": "string", "enum": ["load", "domcontentloaded", "networkidle"]}
				}
			}`),
			Lower: lowerAction("navigate", "url", ""),
		},
		{
			Type:        schema.NodeTypeClick,
			Category:    CategoryAction,
			Label:       "Click",
			Description: "Click an element matched by a selector",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"selector": "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["selector"],
				"properties": {
					"selector": {"type": "string", "minLength": 1},
					"button": {"type": "string", "enum": ["left", "right", "middle"]},
					"clickCount": {"type": "integer", "minimum": 1, "maximum": 3}
				}
			}`),
			Lower: lowerAction("click", "selector", ""),
		},
		{
			Type:        schema.NodeTypeInput,
			Category:    CategoryAction,
			Label:       "Input",
			Description: "Type a value into an input element",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"selector": "",
				"value":    "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["selector", "value"],
				"properties": {
					"selector": {"type": "string", "minLength": 1},
					"value": {"type": "string"},
					"clearFirst": {"type": "boolean"}
				}
			}`),
			Lower: lowerAction("input", "selector", "value"),
		},
		{
			Type:        schema.NodeTypeSelectOption,
			Category:    CategoryAction,
			Label:       "Select Option",
			Description: "Select an option in a dropdown",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"selector": "",
				"value":    "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["selector", "value"],
				"properties": {
					"selector": {"type": "string", "minLength": 1},
					"value": {"type": "string"}
				}
			}`),
			Lower: lowerAction("selectOption", "selector", "value"),
		},
		{
			Type:        schema.NodeTypeHover,
			Category:    CategoryAction,
			Label:       "Hover",
			Description: "Hover over an element",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"selector": "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["selector"],
				"properties": {
					"selector": {"type": "string", "minLength": 1}
				}
			}`),
			Lower: lowerAction("hover", "selector", ""),
		},
		{
			Type:        schema.NodeTypeScroll,
			Category:    CategoryAction,
			Label:       "Scroll",
			Description: "Scroll the page or an element into view",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"direction": "down",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"selector": {"type": "string"},
					"direction": {"type": "string", "enum": ["up", "down", "left", "right"]},
					"amount": {"type": "integer", "minimum": 0}
				}
			}`),
			Lower: lowerAction("scroll", "selector", "direction"),
		},
		{
			Type:        schema.NodeTypeWait,
			Category:    CategoryAction,
			Label:       "Wait",
			Description: "Wait for a duration or for a selector to appear",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"timeout": 1000,
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"selector": {"type": "string"},
					"timeout": {"type": "integer", "minimum": 0, "maximum": 300000}
				}
			}`),
			Lower: func(node *schema.GraphNode) []schema.StepNode {
				action := &schema.ActionStep{
					Type:   "wait",
					Target: configString(node.Data.Config, "selector"),
				}
				if ms := configInt(node.Data.Config, "timeout"); ms > 0 {
					action.Value = strconv.Itoa(ms)
				}
				return []schema.StepNode{{
					ID:          node.ID,
					Description: node.Data.Label,
					Action:      action,
				}}
			},
		},
		{
			Type:        schema.NodeTypeScreenshot,
			Category:    CategoryAction,
			Label:       "Screenshot",
			Description: "Capture a screenshot of the page",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"name": "screenshot",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"fullPage": {"type": "boolean"}
				}
			}`),
			Lower: lowerAction("screenshot", "", "name"),
		},
	}
}

// AssertionDescriptors returns the assertion node types. Assertions lower to
// action fragments like interactions do; the execution engine tells them
// apart by action type.
func AssertionDescriptors() []*Descriptor {
	return []*Descriptor{
		{
			Type:        schema.NodeTypeAssertExists,
			Category:    CategoryAssertion,
			Label:       "Assert Exists",
			Description: "Assert that an element exists in the DOM",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"selector": "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["selector"],
				"properties": {
					"selector": {"type": "string", "minLength": 1}
				}
			}`),
			Lower: lowerAction("assertExists", "selector", ""),
		},
		{
			Type:        schema.NodeTypeAssertText,
			Category:    CategoryAssertion,
			Label:       "Assert Text",
			Description: "Assert that an element contains the expected text",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"selector": "",
				"text":     "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["selector", "text"],
				"properties": {
					"selector": {"type": "string", "minLength": 1},
					"text": {"type": "string"},
					"exact": {"type": "boolean"}
				}
			}`),
			Lower: lowerAction("assertText", "selector", "text"),
		},
		{
			Type:        schema.NodeTypeAssertVisible,
			Category:    CategoryAssertion,
			Label:       "Assert Visible",
			Description: "Assert that an element is visible",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"selector": "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["selector"],
				"properties": {
					"selector": {"type": "string", "minLength": 1}
				}
			}`),
			Lower: lowerAction("assertVisible", "selector", ""),
		},
	}
}
