package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Rrens/db-assistant/internal/api/middleware"
	"github.com/Rrens/db-assistant/internal/api/response"
	"github.com/Rrens/db-assistant/internal/tools"
)

var validate = validator.New()

// ToolHandler exposes the tool registry over HTTP
type ToolHandler struct {
	registry *tools.Registry
}

// NewToolHandler creates a new tool handler
func NewToolHandler(registry *tools.Registry) *ToolHandler {
	return &ToolHandler{registry: registry}
}

type listQuery struct {
	Group string `validate:"omitempty,oneof=schema query analysis visual"`
}

// CallRequest is the body of a tool call
type CallRequest struct {
	Arguments map[string]any `json:"arguments"`
}

// CallResult is the data of a tool call response
type CallResult struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
	Kind   string `json:"kind,omitempty"`
}

// List returns the registered tools, optionally filtered by ?group=
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	q := listQuery{Group: r.URL.Query().Get("group")}
	if err := validate.Struct(q); err != nil {
		response.BadRequest(w, "invalid group: "+q.Group)
		return
	}

	specs := h.registry.Specs(tools.Group(q.Group))
	if claims, ok := middleware.GetClaims(r.Context()); ok {
		allowed := specs[:0:0]
		for _, s := range specs {
			if claims.Allows(string(s.Group)) {
				allowed = append(allowed, s)
			}
		}
		specs = allowed
	}

	response.OK(w, map[string]any{
		"tools": specs,
	})
}

// Call runs one tool. A tool that ran returns 200 whether or not it
// succeeded; success and kind carry the outcome.
func (h *ToolHandler) Call(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req CallRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request body")
		return
	}

	spec, ok := h.registry.Lookup(name)
	if ok {
		if claims, authed := middleware.GetClaims(r.Context()); authed && !claims.Allows(string(spec.Group)) {
			response.Forbidden(w, "tool group '"+string(spec.Group)+"' is not permitted for this token")
			return
		}
	}

	result := h.registry.Call(r.Context(), name, tools.Args(req.Arguments))

	data := CallResult{Tool: result.Tool, Output: result.Text()}
	if !result.OK() {
		data.Kind = string(result.Err.Kind)
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	response.Write(w, status, response.Response{
		Success: result.OK(),
		Data:    data,
	})
}
