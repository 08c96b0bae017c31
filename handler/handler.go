package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"roi-slab-agent/internal/agent"
	"roi-slab-agent/internal/domain"
	"roi-slab-agent/internal/session"
)

const correlationHeader = "X-Correlation-Id"

// SessionHost is the chat lifecycle the handler exposes over HTTP.
type SessionHost interface {
	Start(ctx context.Context) (session.Started, error)
	Message(ctx context.Context, id, text string) (agent.Reply, error)
	History(id string) ([]domain.Message, error)
	Transcript(ctx context.Context, id string, limit int) ([]domain.TurnRecord, error)
	End(ctx context.Context, id string) error
}

type startResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type messageRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Failed    bool   `json:"failed"`
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type historyResponse struct {
	SessionID string         `json:"sessionId"`
	Messages  []historyEntry `json:"messages"`
}

type transcriptEntry struct {
	Turn     int    `json:"turn"`
	UserText string `json:"userText"`
	Reply    string `json:"reply"`
	Failed   bool   `json:"failed"`
	Model    string `json:"model"`
}

type transcriptResponse struct {
	SessionID string            `json:"sessionId"`
	Turns     []transcriptEntry `json:"turns"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler adapts API Gateway proxy events to a SessionHost.
type Handler struct {
	host SessionHost
}

// NewHandler creates a Handler serving host.
func NewHandler(host SessionHost) (*Handler, error) {
	if host == nil {
		return nil, errors.New("handler: session host must not be nil")
	}
	return &Handler{host: host}, nil
}

// Handle routes API Gateway proxy requests:
//
//	POST   /sessions
//	POST   /sessions/{id}/messages
//	GET    /sessions/{id}/messages[?role=user|assistant]
//	GET    /sessions/{id}/transcript[?limit=N]
//	DELETE /sessions/{id}
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := headerValue(req.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	log := slog.With("correlation_id", corrID, "method", req.HTTPMethod, "path", req.Path)

	parts := splitPath(req.Path)
	switch {
	case len(parts) == 1 && parts[0] == "sessions" && req.HTTPMethod == http.MethodPost:
		started, err := h.host.Start(ctx)
		if err != nil {
			return h.fail(log, corrID, err), nil
		}
		return respond(corrID, http.StatusCreated, startResponse{SessionID: started.ID, Message: started.Welcome}), nil

	case len(parts) == 3 && parts[0] == "sessions" && parts[2] == "messages" && req.HTTPMethod == http.MethodPost:
		var body messageRequest
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			return respond(corrID, http.StatusBadRequest, errorResponse{
				Error:   string(session.ErrorInvalidInput),
				Message: "Request body must be JSON with a content field.",
			}), nil
		}
		reply, err := h.host.Message(ctx, parts[1], body.Content)
		if err != nil {
			return h.fail(log, corrID, err), nil
		}
		return respond(corrID, http.StatusOK, messageResponse{
			SessionID: parts[1],
			Role:      domain.RoleAssistant.String(),
			Content:   reply.Text,
			Failed:    reply.Failed(),
		}), nil

	case len(parts) == 3 && parts[0] == "sessions" && parts[2] == "messages" && req.HTTPMethod == http.MethodGet:
		var only domain.Role
		if raw := req.QueryStringParameters["role"]; raw != "" {
			role, err := domain.ParseRole(raw)
			if err != nil {
				return respond(corrID, http.StatusBadRequest, errorResponse{
					Error:   string(session.ErrorInvalidInput),
					Message: "role must be user or assistant.",
				}), nil
			}
			only = role
		}
		history, err := h.host.History(parts[1])
		if err != nil {
			return h.fail(log, corrID, err), nil
		}
		out := historyResponse{SessionID: parts[1], Messages: make([]historyEntry, 0, len(history))}
		for _, m := range history {
			if only.Valid() && m.Role() != only {
				continue
			}
			out.Messages = append(out.Messages, historyEntry{Role: m.Role().String(), Content: m.Content()})
		}
		return respond(corrID, http.StatusOK, out), nil

	case len(parts) == 3 && parts[0] == "sessions" && parts[2] == "transcript" && req.HTTPMethod == http.MethodGet:
		limit := 0
		if raw := req.QueryStringParameters["limit"]; raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return respond(corrID, http.StatusBadRequest, errorResponse{
					Error:   string(session.ErrorInvalidInput),
					Message: "limit must be a non-negative integer.",
				}), nil
			}
			limit = n
		}
		turns, err := h.host.Transcript(ctx, parts[1], limit)
		if err != nil {
			return h.fail(log, corrID, err), nil
		}
		out := transcriptResponse{SessionID: parts[1], Turns: make([]transcriptEntry, 0, len(turns))}
		for _, t := range turns {
			out.Turns = append(out.Turns, transcriptEntry{
				Turn:     t.Turn,
				UserText: t.UserText,
				Reply:    t.Reply,
				Failed:   t.Failed,
				Model:    t.Model,
			})
		}
		return respond(corrID, http.StatusOK, out), nil

	case len(parts) == 2 && parts[0] == "sessions" && req.HTTPMethod == http.MethodDelete:
		if err := h.host.End(ctx, parts[1]); err != nil {
			return h.fail(log, corrID, err), nil
		}
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusNoContent,
			Headers:    map[string]string{correlationHeader: corrID},
		}, nil
	}

	return respond(corrID, http.StatusNotFound, errorResponse{
		Error:   "NOT_FOUND",
		Message: "No route for " + req.HTTPMethod + " " + req.Path,
	}), nil
}

func (h *Handler) fail(log *slog.Logger, corrID string, err error) events.APIGatewayProxyResponse {
	var sessErr *session.Error
	if !errors.As(err, &sessErr) {
		log.Error("unexpected host error", "err", err)
		return respond(corrID, http.StatusInternalServerError, errorResponse{
			Error:   string(session.ErrorInternal),
			Message: "An error occurred: " + err.Error(),
		})
	}

	status := http.StatusInternalServerError
	switch sessErr.Code {
	case session.ErrorInvalidInput:
		status = http.StatusBadRequest
	case session.ErrorNotFound:
		status = http.StatusNotFound
	case session.ErrorUnavailable:
		status = http.StatusNotImplemented
	case session.ErrorConfiguration, session.ErrorInternal:
		log.Error("request failed", "code", sessErr.Code, "reason", sessErr.Reason, "err", sessErr.Err)
	}
	return respond(corrID, status, errorResponse{Error: string(sessErr.Code), Message: sessErr.Message})
}

func respond(corrID string, status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR","message":"could not encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(raw),
	}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
