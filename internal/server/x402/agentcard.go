package x402

import "net/http"

// agentCard is the AP2 (Agent Payments Protocol) card served from
// /.well-known/agent.json. Schema blobs stay untyped; their shape follows
// JSON Schema draft 2020-12 and is consumed by agent frameworks, not us.
type agentCard struct {
	Name               string                     `json:"name"`
	Description        string                     `json:"description"`
	URL                string                     `json:"url"`
	Version            string                     `json:"version"`
	Capabilities       agentCapabilities          `json:"capabilities"`
	DefaultInputModes  []string                   `json:"defaultInputModes"`
	DefaultOutputModes []string                   `json:"defaultOutputModes"`
	Skills             []agentSkill               `json:"skills"`
	SupportsAuthCard   bool                       `json:"supportsAuthenticatedExtendedCard"`
	Entrypoints        map[string]agentEntrypoint `json:"entrypoints"`
	Payments           []agentPayment             `json:"payments"`
}

type agentCapabilities struct {
	Streaming              bool             `json:"streaming"`
	PushNotifications      bool             `json:"pushNotifications"`
	StateTransitionHistory bool             `json:"stateTransitionHistory"`
	Extensions             []agentExtension `json:"extensions"`
}

type agentExtension struct {
	URI         string         `json:"uri"`
	Description string         `json:"description"`
	Required    bool           `json:"required"`
	Params      map[string]any `json:"params"`
}

type agentSkill struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	InputModes   []string       `json:"inputModes"`
	OutputModes  []string       `json:"outputModes"`
	Streaming    bool           `json:"streaming"`
	InputSchema  map[string]any `json:"x_input_schema"`
	OutputSchema map[string]any `json:"x_output_schema"`
}

type agentEntrypoint struct {
	Description  string            `json:"description"`
	Streaming    bool              `json:"streaming"`
	InputSchema  map[string]any    `json:"input_schema"`
	OutputSchema map[string]any    `json:"output_schema"`
	Pricing      map[string]string `json:"pricing"`
}

type agentPayment struct {
	Method     string            `json:"method"`
	Payee      string            `json:"payee"`
	Network    string            `json:"network"`
	Endpoint   string            `json:"endpoint"`
	PriceModel map[string]string `json:"priceModel"`
	Extensions map[string]any    `json:"extensions"`
}

// AgentCard builds the AP2 card advertising the paid detection entrypoint.
func AgentCard(cfg Config) agentCard {
	return agentCard{
		Name:        agentName,
		Description: "Real-time arbitrage opportunity detection across multiple DEXs with gas cost and fee analysis. Identifies profitable price spreads with <1% accuracy.",
		URL:         cfg.BaseURL + "/",
		Version:     agentVersion,
		Capabilities: agentCapabilities{
			StateTransitionHistory: true,
			Extensions: []agentExtension{{
				URI:         "https://github.com/google-agentic-commerce/ap2/tree/v0.1",
				Description: "Agent Payments Protocol (AP2)",
				Required:    true,
				Params:      map[string]any{"roles": []string{"merchant"}},
			}},
		},
		DefaultInputModes:  []string{"application/json"},
		DefaultOutputModes: []string{"application/json", "text/plain"},
		Skills: []agentSkill{{
			ID:           entrypointID,
			Name:         entrypointID,
			Description:  "Detect profitable arbitrage opportunities across multiple DEXs and chains",
			InputModes:   []string{"application/json"},
			OutputModes:  []string{"application/json"},
			InputSchema:  requestSchema(),
			OutputSchema: reportSchema(true),
		}},
		Entrypoints: map[string]agentEntrypoint{
			entrypointID: {
				Description:  "Find profitable arbitrage routes across DEXs",
				InputSchema:  requestSchema(),
				OutputSchema: reportSchema(false),
				Pricing:      map[string]string{"invoke": invokePrice},
			},
		},
		Payments: []agentPayment{{
			Method:     "x402",
			Payee:      cfg.PayTo,
			Network:    cfg.Network,
			Endpoint:   facilitatorURL,
			PriceModel: map[string]string{"default": "0.05"},
			Extensions: map[string]any{
				"x402": map[string]any{"facilitatorUrl": facilitatorURL},
			},
		}},
	}
}

// AgentCardHandler serves the card with status 200 for GET and HEAD.
func AgentCardHandler(cfg Config) http.HandlerFunc {
	card := AgentCard(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		writeDoc(w, http.StatusOK, card)
	}
}

func requestSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"token_in":  map[string]any{"type": "string", "description": "Input token address or symbol"},
			"token_out": map[string]any{"type": "string", "description": "Output token address or symbol"},
			"amount_in": map[string]any{"type": "string", "description": "Amount to swap in token units"},
			"chains": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"description": "List of chain IDs to scan",
			},
		},
		"required":             []string{"token_in", "token_out", "amount_in", "chains"},
		"additionalProperties": false,
	}
}

func reportSchema(withRequired bool) map[string]any {
	s := map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"best_route":     map[string]any{"type": "object"},
			"alt_routes":     map[string]any{"type": "array"},
			"net_spread_bps": map[string]any{"type": "number"},
			"est_fill_cost":  map[string]any{"type": "number"},
		},
		"additionalProperties": false,
	}
	if withRequired {
		s["required"] = []string{"best_route", "alt_routes", "net_spread_bps", "est_fill_cost"}
	}
	return s
}
