package webhook

import "regexp"

// WebhookRequest is the inbound event envelope posted by the NLU service
type WebhookRequest struct {
	QueryResult QueryResult `json:"queryResult"`
}

// QueryResult carries the classified intent, its parameter bag and the
// conversation contexts the session id is derived from.
type QueryResult struct {
	Intent         Intent                 `json:"intent"`
	Parameters     map[string]interface{} `json:"parameters"`
	OutputContexts []OutputContext        `json:"outputContexts"`
}

// Intent identifies the matched intent by display name
type Intent struct {
	DisplayName string `json:"displayName"`
}

// OutputContext is one active conversation context
type OutputContext struct {
	Name string `json:"name"`
}

// WebhookResponse is echoed verbatim to the end user by the NLU layer
type WebhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

var sessionIDPattern = regexp.MustCompile(`/sessions/(.*?)/contexts/`)

// ExtractSessionID pulls the session id out of the first output
// context's name. An empty result means the request is invalid.
func ExtractSessionID(contexts []OutputContext) string {
	if len(contexts) == 0 {
		return ""
	}
	match := sessionIDPattern.FindStringSubmatch(contexts[0].Name)
	if match == nil {
		return ""
	}
	return match[1]
}
