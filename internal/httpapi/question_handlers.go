package httpapi

import (
	"net/http"
	"strings"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/audit"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/content"
)

type createQuestionRequest struct {
	Stem       string `json:"stem"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty,omitempty"`
}

type reviewQuestionRequest struct {
	Verdict string `json:"verdict"`
	Note    string `json:"note,omitempty"`
}

func (a *API) handleQuestions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createQuestion(w, r)
	case http.MethodGet:
		a.listQuestions(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createQuestion(w http.ResponseWriter, r *http.Request) {
	if !a.ensurePolicy(w, r, auth.Policy{RequireAuth: true, Permissions: []string{auth.PermQuestionsCreate}}) {
		return
	}
	var req createQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Stem) == "" || strings.TrimSpace(req.Answer) == "" {
		writeError(w, r, http.StatusBadRequest, "stem and answer are required")
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	q := &content.Question{
		AuthorID:   principal.User.ID,
		Stem:       strings.TrimSpace(req.Stem),
		Answer:     strings.TrimSpace(req.Answer),
		Difficulty: strings.TrimSpace(req.Difficulty),
	}
	if err := a.content.Create(r.Context(), q); err != nil {
		handleContentError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "questions.create", map[string]any{"question_id": q.ID})
	w.Header().Set("Location", "/v1/questions/"+q.ID)
	writeJSON(w, http.StatusCreated, q)
}

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request) {
	if !a.ensurePolicy(w, r, auth.Policy{RequireAuth: true, Permissions: []string{auth.PermQuestionsRead}}) {
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	items, err := a.content.List(r.Context(), status, 50)
	if err != nil {
		handleContentError(w, r, err)
		return
	}
	if items == nil {
		items = []content.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleQuestionScoped routes /v1/questions/{id}/review.
func (a *API) handleQuestionScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/questions/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "review" || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	questionID := parts[0]

	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePolicy(w, r, auth.Policy{RequireAuth: true, Permissions: []string{auth.PermQuestionsReview}}) {
		return
	}

	var req reviewQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var status string
	switch strings.ToLower(strings.TrimSpace(req.Verdict)) {
	case "approve":
		status = content.StatusApproved
	case "reject":
		status = content.StatusRejected
	default:
		writeError(w, r, http.StatusBadRequest, "verdict must be approve or reject")
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	if err := a.content.SetReview(r.Context(), questionID, principal.User.ID, status, req.Note); err != nil {
		handleContentError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "questions.review", map[string]any{
		"question_id": questionID,
		"verdict":     status,
	})
	writeJSON(w, http.StatusOK, map[string]any{"question_id": questionID, "status": status})
}
