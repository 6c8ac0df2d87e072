package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/harmony/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "Test API" || spec.Info.Version != "1.0.0" {
		t.Errorf("info: got %+v", spec.Info)
	}
	if spec.Components == nil || spec.Paths == nil {
		t.Fatal("components and paths should be initialized")
	}
}

func TestAddOperation(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.AddOperation(http.MethodPost, "/parse/text", &openapi.Operation{Summary: "parse"})
	spec.AddOperation(http.MethodGet, "/parse/text", &openapi.Operation{Summary: "describe"})

	item, ok := spec.Paths["/parse/text"]
	if !ok {
		t.Fatal("path not added")
	}
	if item.Post == nil || item.Post.Summary != "parse" {
		t.Errorf("post: got %+v", item.Post)
	}
	if item.Get == nil || item.Get.Summary != "describe" {
		t.Errorf("get: got %+v", item.Get)
	}
}

func TestRefs(t *testing.T) {
	if got := openapi.SchemaRef("EventSuggestion").Ref; got != "#/components/schemas/EventSuggestion" {
		t.Errorf("schema ref: got %s", got)
	}
	if got := openapi.ResponseRef("BadRequest").Ref; got != "#/components/responses/BadRequest" {
		t.Errorf("response ref: got %s", got)
	}
}

func TestRequestBodies(t *testing.T) {
	rb := openapi.RequestBodyJSON("TextRequest", true)
	if !rb.Required || rb.Content["application/json"].Schema.Ref != "#/components/schemas/TextRequest" {
		t.Errorf("json body: got %+v", rb)
	}

	mp := openapi.RequestBodyMultipart("file", "Screenshot")
	media, ok := mp.Content["multipart/form-data"]
	if !ok {
		t.Fatal("missing multipart content type")
	}
	if media.Schema.Properties["file"].Format != "binary" {
		t.Errorf("file field: got %+v", media.Schema.Properties["file"])
	}
}

func TestQueryParam(t *testing.T) {
	p := openapi.QueryParam("ocr_mode", "string", "OCR mode", false)

	if p.Name != "ocr_mode" || p.In != "query" || p.Required {
		t.Errorf("param: got %+v", p)
	}
}

func TestNullable(t *testing.T) {
	s := openapi.Nullable(&openapi.Schema{Type: "string"})
	if len(s.AnyOf) != 2 || s.AnyOf[1].Type != "null" {
		t.Errorf("nullable: got %+v", s)
	}
}

func TestNewComponentsDefaults(t *testing.T) {
	c := openapi.NewComponents()

	if _, ok := c.Schemas["Error"]; !ok {
		t.Error("missing default Error schema")
	}
	for _, name := range []string{"BadRequest", "BadGateway", "GatewayTimeout", "ServiceUnavailable"} {
		if _, ok := c.Responses[name]; !ok {
			t.Errorf("missing default response: %s", name)
		}
	}

	c.AddSchemas(map[string]*openapi.Schema{"EventSuggestion": {Type: "object"}})
	if _, ok := c.Schemas["Error"]; !ok {
		t.Error("default schema should survive AddSchemas")
	}
}

func TestServeSpec(t *testing.T) {
	data, err := openapi.MarshalJSON(openapi.NewSpec("Test", "1.0.0"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	var parsed map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", parsed["openapi"])
	}
}
