package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/charitybridge/nico/internal/chat"
	"github.com/charitybridge/nico/internal/children"
)

const defaultPageSize = 20

// childView is the public JSON shape of one child.
type childView struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Age                int    `json:"age"`
	Gender             string `json:"gender"`
	Country            string `json:"country"`
	ProfileDescription string `json:"profile_description"`
	DateOfBirth        string `json:"date_of_birth"`
	ImagePath          string `json:"image_path,omitempty"`
	Link               string `json:"link"`
}

func toChildView(c children.Child) childView {
	return childView{
		ID:                 c.ID,
		Name:               c.Name,
		Age:                c.Age,
		Gender:             c.Gender,
		Country:            c.Country,
		ProfileDescription: c.ProfileDescription,
		DateOfBirth:        c.DateOfBirth.Format("2006-01-02"),
		ImagePath:          c.ImagePath,
		Link:               c.DetailPath(),
	}
}

// faqView is the public JSON shape of one FAQ entry. The answer is
// rendered from Markdown to HTML.
type faqView struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Link     string `json:"link"`
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	q := children.ListQuery{
		Keywords: r.URL.Query().Get("keywords"),
		Limit:    defaultPageSize,
	}
	q.Gender = r.URL.Query().Get("gender")
	// The listing UI filters by group name rather than the stored gender.
	if mapped, ok := children.GenderGroup[q.Gender]; ok {
		q.Gender = mapped
	}
	q.Country = r.URL.Query().Get("country")
	if v := queryInt(r, "min_age"); v != nil {
		q.MinAge = v
	}
	if v := queryInt(r, "max_age"); v != nil {
		q.MaxAge = v
	}
	if p := queryInt(r, "page"); p != nil && *p > 1 {
		q.Offset = (*p - 1) * defaultPageSize
	}

	list, err := s.children.List(r.Context(), q)
	if err != nil {
		serverError(w, "listing children", err)
		return
	}

	views := make([]childView, len(list))
	for i, c := range list {
		views[i] = toChildView(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": views})
}

func (s *Server) handleGetChild(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid child id", http.StatusBadRequest)
		return
	}

	c, err := s.children.Get(r.Context(), id)
	if err != nil {
		serverError(w, "fetching child", err)
		return
	}
	if c == nil {
		http.Error(w, "child not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toChildView(*c))
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageSize
	offset := 0
	if p := queryInt(r, "page"); p != nil && *p > 1 {
		offset = (*p - 1) * defaultPageSize
	}

	list, err := s.faqs.List(r.Context(), limit, offset)
	if err != nil {
		serverError(w, "listing faqs", err)
		return
	}

	views := make([]faqView, 0, len(list))
	for _, f := range list {
		html, err := f.AnswerHTML()
		if err != nil {
			serverError(w, "rendering faq answer", err)
			return
		}
		views = append(views, faqView{ID: f.ID, Question: f.Question, Answer: html, Link: f.DetailPath()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"faqs": views})
}

func (s *Server) handleGetFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid faq id", http.StatusBadRequest)
		return
	}

	f, err := s.faqs.Get(r.Context(), id)
	if err != nil {
		serverError(w, "fetching faq", err)
		return
	}
	if f == nil {
		http.Error(w, "faq not found", http.StatusNotFound)
		return
	}

	html, err := f.AnswerHTML()
	if err != nil {
		serverError(w, "rendering faq answer", err)
		return
	}
	writeJSON(w, http.StatusOK, faqView{ID: f.ID, Question: f.Question, Answer: html, Link: f.DetailPath()})
}

// handleNewSession mints a chat session token. The token is verified,
// not stored: the websocket endpoint recomputes the signature.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		http.Error(w, "chat is not configured", http.StatusServiceUnavailable)
		return
	}
	id := chat.NewSessionID(s.cfg.SessionSecret)
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id})
}

func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		http.Error(w, "chat is not configured", http.StatusServiceUnavailable)
		return
	}

	sessionID := s.chat.SessionID(chi.URLParam(r, "session"))
	if sessionID == "" {
		log.Printf("server: rejected invalid chat session token")
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}
	s.chat.ServeWS(w, r, sessionID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func serverError(w http.ResponseWriter, what string, err error) {
	log.Printf("server: %s: %v", what, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func queryInt(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
