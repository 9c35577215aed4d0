package tools

import (
	"encoding/json"
	"fmt"
)

// schemaJSON is the tool surface offered to the completion model. Do not edit: the
// model-side prompt and any external agent configuration depend on it byte for byte.
const schemaJSON = `[
    {
        "type": "function",
        "function": {
            "name": "collect_user_info",
            "description": "Collect user information (name, email, reason) for the appointment booking. Call this function as the user provides each piece of information during the conversation.",
            "parameters": {
                "type": "object",
                "properties": {
                    "name": {
                        "type": "string",
                        "description": "User's full name (first and last name)"
                    },
                    "email": {
                        "type": "string",
                        "description": "User's valid email address for confirmation"
                    },
                    "reason": {
                        "type": "string",
                        "description": "Detailed reason for the emergency appointment request (e.g., 'visa expires next week', 'work permit renewal urgent')"
                    }
                },
                "required": []
            }
        }
    },
    {
        "type": "function",
        "function": {
            "name": "check_availability",
            "description": "Check available appointment slots for specific dates. Use this when the user mentions their preferred dates or asks about availability.",
            "parameters": {
                "type": "object",
                "properties": {
                    "dates": {
                        "type": "array",
                        "items": {
                            "type": "string",
                            "pattern": "^\\d{4}-\\d{2}-\\d{2}$"
                        },
                        "description": "List of dates in YYYY-MM-DD format. Example: ['2025-12-05', '2025-12-06']",
                        "minItems": 1
                    }
                },
                "required": ["dates"]
            }
        }
    },
    {
        "type": "function",
        "function": {
            "name": "reserve_slot_temporarily",
            "description": "Temporarily reserve a specific appointment slot after the user selects their preferred time. This generates a confirmation token and triggers an email to the user.",
            "parameters": {
                "type": "object",
                "properties": {
                    "appointment_id": {
                        "type": "string",
                        "description": "The unique ID of the appointment slot to reserve (e.g., 'apt_001')",
                        "pattern": "^apt_\\d+$"
                    },
                    "user_data": {
                        "type": "object",
                        "properties": {
                            "name": {
                                "type": "string",
                                "description": "User's full name"
                            },
                            "email": {
                                "type": "string",
                                "description": "User's email address"
                            },
                            "reason": {
                                "type": "string",
                                "description": "Reason for emergency appointment"
                            }
                        },
                        "required": ["name", "email", "reason"],
                        "description": "Complete user information collected during the conversation"
                    }
                },
                "required": ["appointment_id", "user_data"]
            }
        }
    }
]`

// Definition is one model-facing tool.
type Definition struct {
	Name        Name
	Description string
	Parameters  json.RawMessage
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

var definitions = mustParseSchema(schemaJSON)

func mustParseSchema(raw string) []Definition {
	var wire []wireTool
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		panic(fmt.Sprintf("tools: invalid schema: %v", err))
	}
	defs := make([]Definition, 0, len(wire))
	for _, w := range wire {
		name, ok := ParseName(w.Function.Name)
		if !ok {
			panic(fmt.Sprintf("tools: schema names unknown tool %q", w.Function.Name))
		}
		defs = append(defs, Definition{Name: name, Description: w.Function.Description, Parameters: w.Function.Parameters})
	}
	return defs
}

// SchemaJSON returns the tool array exactly as offered to the model.
func SchemaJSON() json.RawMessage {
	return json.RawMessage(schemaJSON)
}

// Definitions returns the parsed model-facing tools.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}
