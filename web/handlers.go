package web

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wippyai/dbn-playground/playground"
)

// MaxSourceBytes caps submitted programs.
const MaxSourceBytes = 1 << 20

type pageData struct {
	State          playground.State
	Options        []playground.Option
	Primary        template.URL
	SecondaryImage template.URL
	SecondaryText  string
	Error          string
	HasSecondary   bool
	Secondary      bool
}

func (s *Server) page(st playground.State, board playground.BoardSnapshot, secondary bool) pageData {
	data := pageData{
		State:        st,
		Options:      s.session.Options(),
		HasSecondary: s.session.Binding().HasSecondary(),
		Secondary:    secondary,
		Error:        board.Error,
	}
	if img, ok := playground.Classify(board.Primary).(playground.Image); ok {
		data.Primary = template.URL(img.Data)
	}
	// The secondary surface is never classified by the run; anything that
	// is not a data URI is shown as text.
	if board.Secondary != "" {
		if img, ok := playground.Classify(board.Secondary).(playground.Image); ok {
			data.SecondaryImage = template.URL(img.Data)
		} else {
			data.SecondaryText = board.Secondary
		}
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render page", zap.Error(err))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.session.Initial()
	if name := r.URL.Query().Get("example"); name != "" {
		next, err := s.session.Dispatcher(&playground.Board{}).
			Dispatch(r.Context(), st, playground.SelectionChanged{Name: name})
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		st = next
	}
	s.render(w, s.page(st, playground.BoardSnapshot{}, s.secondary))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxSourceBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := playground.State{Selected: r.PostForm.Get("example")}
	secondary := r.PostForm.Get("secondary") != ""

	board := &playground.Board{}
	st, err := s.session.Dispatcher(board).Dispatch(r.Context(), st, playground.RunRequested{
		Source:    r.PostForm.Get("source"),
		Secondary: secondary,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, s.page(st, board.Snapshot(), secondary))
}

func (s *Server) handleExampleRaw(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ex, ok := s.session.Catalog().Lookup(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	text, fetched := ex.Content()
	if !fetched {
		http.Error(w, "example content unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

type exampleJSON struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Fetched     bool   `json:"fetched"`
	Text        string `json:"text,omitempty"`
}

func (s *Server) handleListExamples(w http.ResponseWriter, _ *http.Request) {
	examples := s.session.Catalog().Examples()
	out := make([]exampleJSON, len(examples))
	for i, ex := range examples {
		out[i] = exampleJSON{Name: ex.Name, Description: ex.Description, Fetched: ex.Fetched()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExample(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	st, err := playground.Select(s.session.Catalog(), playground.State{}, name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	ex, _ := s.session.Catalog().Lookup(name)
	writeJSON(w, http.StatusOK, exampleJSON{
		Name:        name,
		Description: ex.Description,
		Fetched:     ex.Fetched(),
		Text:        st.Text,
	})
}

type runRequest struct {
	Source    string `json:"source"`
	Secondary bool   `json:"secondary"`
}

type runResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Image     string  `json:"image,omitempty"`
	Secondary *string `json:"secondary,omitempty"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

func (s *Server) handleAPIRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxSourceBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	out := s.session.Runner().Run(r.Context(), req.Source, req.Secondary, &playground.Board{})
	resp := runResponse{ID: out.ID.String(), ElapsedMS: out.Elapsed.Milliseconds()}
	switch res := out.Result.(type) {
	case playground.Image:
		resp.Kind = "image"
		resp.Image = res.Data
	case playground.Failure:
		resp.Kind = "failure"
		resp.Error = res.Message
	}
	if out.SecondaryInvoked {
		resp.Secondary = &out.Secondary
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
