package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type startRequest struct {
	ContactName string `json:"contact_name,omitempty"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type questionRequest struct {
	Question string `json:"question"`
}

type supplementRequest struct {
	Info string `json:"info"`
}

func (s *Server) startCollection(w http.ResponseWriter, r *http.Request) {
	eng, err := s.engineFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req startRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
	}

	res, err := eng.Start(r.Context(), caller, strings.TrimSpace(req.ContactName))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	eng, err := s.engineFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, sid, req, ok := s.decodeSessionCall(w, r, &messageRequest{})
	if !ok {
		return
	}
	msg := strings.TrimSpace(req.(*messageRequest).Message)
	if msg == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	res, err := eng.HandleMessage(r.Context(), sid, caller, msg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	eng, err := s.engineFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sid, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	info, err := eng.Progress(r.Context(), sid, caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) abandonSession(w http.ResponseWriter, r *http.Request) {
	eng, err := s.engineFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sid, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := eng.Abandon(r.Context(), sid, caller); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}

func (s *Server) askQuestion(w http.ResponseWriter, r *http.Request) {
	caller, sid, req, ok := s.decodeSessionCall(w, r, &questionRequest{})
	if !ok {
		return
	}
	q := strings.TrimSpace(req.(*questionRequest).Question)
	if q == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	ans, err := s.qa.ProcessQuestion(r.Context(), sid, caller, q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) supplementInfo(w http.ResponseWriter, r *http.Request) {
	caller, sid, req, ok := s.decodeSessionCall(w, r, &supplementRequest{})
	if !ok {
		return
	}
	info := strings.TrimSpace(req.(*supplementRequest).Info)
	if info == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "info is required"})
		return
	}

	ans, err := s.qa.ProcessSupplementInfo(r.Context(), sid, caller, info)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) generateSummary(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sid, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := s.qa.GenerateSummary(r.Context(), sid, caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sid, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.qa.EndSession(r.Context(), sid, caller); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

// decodeSessionCall pulls the caller, session id and JSON payload out
// of a session-scoped POST.
func (s *Server) decodeSessionCall(w http.ResponseWriter, r *http.Request, payload any) (caller, sid uuid.UUID, req any, ok bool) {
	c, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	return c, id, payload, true
}
