package openapi

import "maps"

// NewComponents creates Components with the shared error schema and the
// error responses every operation can reference.
func NewComponents() *Components {
	errorBody := func(description string) *Response {
		return &Response{
			Description: description,
			Content: map[string]*MediaType{
				"application/json": {Schema: SchemaRef("Error")},
			},
		}
	}

	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error":      {Type: "string", Description: "Error message"},
					"kind":       {Type: "string", Description: "Machine-readable failure kind"},
					"raw_output": {Type: "string", Description: "Unvalidated model reply, present on schema failures"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":          errorBody("Invalid request or model selection"),
			"UnsupportedMedia":    errorBody("Upload is not a decodable image"),
			"UnprocessableEntity": errorBody("Model reply failed schema validation"),
			"TooManyRequests":     errorBody("Model provider rate limited the request"),
			"BadGateway":          errorBody("Model provider rejected the request"),
			"ServiceUnavailable":  errorBody("OCR engine unavailable"),
			"GatewayTimeout":      errorBody("Model provider unreachable or timed out"),
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
