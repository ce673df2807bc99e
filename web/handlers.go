// ABOUTME: HTTP handlers for leads, clients, engagements and their lifecycle operations
// ABOUTME: Decodes request bodies, calls the engine, and renders results or error envelopes
package web

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
)

type versionBody struct {
	Version string `json:"version"`
}

type transitionBody struct {
	TargetStatus string `json:"targetStatus"`
	Version      string `json:"version"`
}

type leadPatchBody struct {
	Version string `json:"version"`
	engine.LeadPatch
}

type clientPatchBody struct {
	Version string `json:"version"`
	engine.ClientPatch
}

type engagementPatchBody struct {
	Version string `json:"version"`
	engine.EngagementPatch
}

type noteBody struct {
	Version string `json:"version"`
	Note    string `json:"note"`
}

type convertBody struct {
	Version    string                      `json:"version"`
	Engagement *engine.EngagementOverrides `json:"engagement,omitempty"`
}

// listFilter reads status, q, includeArchived and limit from the query string.
func listFilter(r *http.Request) db.ListFilter {
	q := r.URL.Query()
	filter := db.ListFilter{
		Status: q.Get("status"),
		Query:  q.Get("q"),
	}
	if v, err := strconv.ParseBool(q.Get("includeArchived")); err == nil {
		filter.IncludeArchived = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		filter.Limit = v
	}
	return filter
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var in engine.LeadInput
	if err := decodeBody(r, &in); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	lead, err := s.engine.CreateLead(r.Context(), in)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.engine.ListLeads(r.Context(), listFilter(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	lead, err := s.engine.GetLead(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var body leadPatchBody
	if err := decodeBody(r, &body); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	lead, err := s.engine.UpdateLead(r.Context(), id, body.Version, body.LeadPatch)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var body convertBody
	if err := decodeBody(r, &body); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	result, err := s.engine.Convert(r.Context(), id, body.Version, body.Engagement)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in engine.ClientInput
	if err := decodeBody(r, &in); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	client, err := s.engine.CreateClient(r.Context(), in)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.engine.ListClients(r.Context(), listFilter(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	client, err := s.engine.GetClient(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var body clientPatchBody
	if err := decodeBody(r, &body); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	client, err := s.engine.UpdateClient(r.Context(), id, body.Version, body.ClientPatch)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var body noteBody
	if err := decodeBody(r, &body); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	client, err := s.engine.AddClientNote(r.Context(), id, body.Version, body.Note)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleCreateEngagement(w http.ResponseWriter, r *http.Request) {
	var in engine.EngagementInput
	if err := decodeBody(r, &in); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	engagement, err := s.engine.CreateEngagement(r.Context(), in)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, engagement)
}

func (s *Server) handleListEngagements(w http.ResponseWriter, r *http.Request) {
	filter := listFilter(r)
	if raw := r.URL.Query().Get("client"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			s.writeEngineError(w, validationFailure("client", "must be a UUID"))
			return
		}
		filter.ClientID = &clientID
	}
	engagements, err := s.engine.ListEngagements(r.Context(), filter)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engagements)
}

func (s *Server) handleGetEngagement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	engagement, err := s.engine.GetEngagement(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engagement)
}

func (s *Server) handleUpdateEngagement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var body engagementPatchBody
	if err := decodeBody(r, &body); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	engagement, err := s.engine.UpdateEngagement(r.Context(), id, body.Version, body.EngagementPatch)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engagement)
}

func (s *Server) handleTransition(entity models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		var body transitionBody
		if err := decodeBody(r, &body); err != nil {
			s.writeBadRequest(w, err.Error())
			return
		}
		record, err := s.engine.Transition(r.Context(), entity, id, body.TargetStatus, body.Version)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleArchive(entity models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		var body versionBody
		if err := decodeBody(r, &body); err != nil {
			s.writeBadRequest(w, err.Error())
			return
		}
		record, err := s.engine.Archive(r.Context(), entity, id, body.Version)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleRestore(entity models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		var body versionBody
		if err := decodeBody(r, &body); err != nil {
			s.writeBadRequest(w, err.Error())
			return
		}
		record, err := s.engine.Restore(r.Context(), entity, id, body.Version)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleActivities(entity models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		activities, err := s.engine.ListActivities(r.Context(), entity, id)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, activities)
	}
}

// bulkErrorResponse carries the items applied before a storage failure stopped the run.
type bulkErrorResponse struct {
	Error  engine.Envelope   `json:"error"`
	Result engine.BulkResult `json:"result"`
}

// handleBulk takes the entity type from the route; a body entityType is ignored.
func (s *Server) handleBulk(entity models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req engine.BulkRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeBadRequest(w, err.Error())
			return
		}
		req.EntityType = entity
		result, err := s.engine.Bulk(r.Context(), req)
		if err != nil && engine.CodeOf(err) == engine.CodeServer {
			s.logger.Printf("bulk %s stopped after %d items: %v", req.Action, result.Affected, err)
			writeJSON(w, http.StatusInternalServerError, bulkErrorResponse{Error: engine.ToEnvelope(err), Result: result})
			return
		}
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
