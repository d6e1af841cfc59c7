package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"planroom/api/internal/search"
	"planroom/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	search     *search.Service
	corsOrigin string
}

func NewHTTPServer(service *Service, searchService *search.Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, search: searchService, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	session := sessionFromHeaders(r)

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be a positive integer", nil)
				return
			}
			limit = parsed
		}
		payload := s.search.Search(r.Context(), search.Query{Text: q, Limit: limit})
		writeJSON(w, http.StatusOK, payload)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/contracts" {
		var body CreateContractInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		contract, warnings, err := s.service.CreateContract(r.Context(), body, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"contract": contract, "warnings": warnings})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/milestones" {
		var body CreateMilestoneInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		milestone, warnings, err := s.service.CreateMilestone(r.Context(), body, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"milestone": milestone, "warnings": warnings})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/cases" {
		var body CreateCaseInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		entry, warnings, err := s.service.CreateCase(r.Context(), body, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"case": entry, "warnings": warnings})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/tasks" {
		var body CreateTaskInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		task, warnings, err := s.service.CreateTask(r.Context(), body, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"task": task, "warnings": warnings})
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "contracts" && parts[3] == "resync" && r.Method == http.MethodPost {
		if err := s.service.ResyncBoard(r.Context(), parts[2], session); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "contracts" {
		s.handleContract(w, r, session, parts[2])
		return
	}
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "milestones" {
		s.handleMilestone(w, r, session, parts[2])
		return
	}
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "cases" {
		s.handleCase(w, r, session, parts[2])
		return
	}
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "tasks" {
		s.handleTask(w, r, session, parts[2])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// editBody carries a partial entity payload plus the explicit list of changed
// fields. An absent list means every editable field changed.
type editBody[T any] struct {
	Fields []string `json:"fields"`
	Entity T        `json:"entity"`
}

func (s *HTTPServer) handleContract(w http.ResponseWriter, r *http.Request, session Session, id string) {
	switch r.Method {
	case http.MethodGet:
		contract, err := s.service.GetContract(r.Context(), id)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contract": contract})

	case http.MethodPut:
		var body editBody[store.Contract]
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.Entity.ID = id
		contract, warnings, err := s.service.EditContract(r.Context(), body.Entity, body.Fields, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contract": contract, "warnings": warnings})

	case http.MethodDelete:
		warnings, err := s.service.DeleteContract(r.Context(), id, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "warnings": warnings})

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}

func (s *HTTPServer) handleMilestone(w http.ResponseWriter, r *http.Request, session Session, id string) {
	switch r.Method {
	case http.MethodGet:
		milestone, err := s.service.GetMilestone(r.Context(), id)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"milestone": milestone})

	case http.MethodPut:
		var body editBody[store.Milestone]
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.Entity.ID = id
		milestone, warnings, err := s.service.EditMilestone(r.Context(), body.Entity, body.Fields, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"milestone": milestone, "warnings": warnings})

	case http.MethodDelete:
		warnings, err := s.service.DeleteMilestone(r.Context(), id, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "warnings": warnings})

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}

func (s *HTTPServer) handleCase(w http.ResponseWriter, r *http.Request, session Session, id string) {
	switch r.Method {
	case http.MethodGet:
		entry, err := s.service.GetCase(r.Context(), id)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"case": entry})

	case http.MethodPut:
		var body editBody[store.Case]
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.Entity.ID = id
		entry, warnings, err := s.service.EditCase(r.Context(), body.Entity, body.Fields, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"case": entry, "warnings": warnings})

	case http.MethodDelete:
		warnings, err := s.service.DeleteCase(r.Context(), id, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "warnings": warnings})

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}

func (s *HTTPServer) handleTask(w http.ResponseWriter, r *http.Request, session Session, id string) {
	switch r.Method {
	case http.MethodGet:
		task, err := s.service.GetTask(r.Context(), id)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"task": task})

	case http.MethodPut:
		var body editBody[store.Task]
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.Entity.ID = id
		task, warnings, err := s.service.EditTask(r.Context(), body.Entity, body.Fields, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"task": task, "warnings": warnings})

	case http.MethodDelete:
		warnings, err := s.service.DeleteTask(r.Context(), id, session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "warnings": warnings})

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}

// sessionFromHeaders trusts the identity headers set by the auth proxy in
// front of this service.
func sessionFromHeaders(r *http.Request) Session {
	rank := 0
	if raw := strings.TrimSpace(r.Header.Get("X-User-Role-Rank")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			rank = parsed
		}
	}
	return Session{
		UserID:   strings.TrimSpace(r.Header.Get("X-User-Id")),
		UserName: strings.TrimSpace(r.Header.Get("X-User-Name")),
		Email:    strings.TrimSpace(r.Header.Get("X-User-Email")),
		RoleRank: rank,
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-User-Id, X-User-Name, X-User-Email, X-User-Role-Rank")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
