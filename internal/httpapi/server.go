package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AnswerPort is the HTTP-facing subset of the answer service.
type AnswerPort interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Server is a thin transport shim in front of the pipeline. Pipeline errors
// are reported in the response body, never as transport faults.
type Server struct {
	router   *mux.Router
	answerer AnswerPort
	log      *zap.SugaredLogger
}

// Config configures the HTTP surface.
type Config struct {
	AllowedOrigins []string
	Logger         *zap.SugaredLogger
}

func NewServer(answerer AnswerPort, cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{answerer: answerer, log: log}

	r := mux.NewRouter()
	r.Use(requestLogging(log))
	r.Use(cors(cfg.AllowedOrigins))
	r.HandleFunc("/api/ask", s.handleAsk).Methods(http.MethodPost, http.MethodOptions)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Status string `json:"status"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, askResponse{Status: "error", Answer: "Error: invalid request body"})
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		s.log.Errorw("question failed", "error", err)
		writeJSON(w, http.StatusOK, askResponse{Status: "error", Answer: "Error: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Status: "success", Answer: answer})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
