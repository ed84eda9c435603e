package api

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/BTreeMap/MoodLens/internal/assessment"
	"github.com/BTreeMap/MoodLens/internal/models"
	"github.com/BTreeMap/MoodLens/internal/trend"
	"github.com/invopop/jsonschema"
)

// schemaTypes maps the names served under /schemas/{name} to the payloads they describe.
var schemaTypes = map[string]any{
	"checkin":    models.CheckInRequest{},
	"assess":     AssessRequest{},
	"assessment": assessment.MentalHealthAssessment{},
	"trend":      trend.Analysis{},
}

var (
	schemaOnce  sync.Once
	schemaCache map[string]*jsonschema.Schema
)

// schemas reflects every published payload once.
func schemas() map[string]*jsonschema.Schema {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			AllowAdditionalProperties:  false,
			DoNotReference:             true,
			RequiredFromJSONSchemaTags: true,
		}
		schemaCache = make(map[string]*jsonschema.Schema, len(schemaTypes))
		for name, v := range schemaTypes {
			s := r.Reflect(v)
			s.Title = name
			schemaCache[name] = s
		}
	})
	return schemaCache
}

// SchemaNames lists the payload schemas the server publishes.
func SchemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) schemaIndexHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "schemaIndexHandler", http.MethodGet) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(SchemaNames()))
}

// schemaHandler serves the bare JSON Schema document, not wrapped in a response envelope.
func (s *Server) schemaHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "schemaHandler", http.MethodGet) {
		return
	}
	name := r.PathValue("name")
	schema, ok := schemas()[name]
	if !ok {
		slog.Warn("Server.schemaHandler: unknown schema", "name", name)
		writeJSONResponse(w, http.StatusNotFound, models.Error("unknown schema: "+name))
		return
	}
	writeJSONResponse(w, http.StatusOK, schema)
}
