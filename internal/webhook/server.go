package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gh "github.com/google/go-github/v68/github"

	ghadapter "github.com/steveyegge/stale/internal/github"
	"github.com/steveyegge/stale/internal/policy"
	"github.com/steveyegge/stale/internal/stale"
)

// maxPayloadSize matches GitHub's delivery cap.
const maxPayloadSize = 25 << 20

// ActivityHandler decides and applies the unmark for one activity.
// *stale.Guard satisfies it.
type ActivityHandler interface {
	Handle(ctx context.Context, a stale.Activity) (bool, error)
}

// Server handles GitHub webhook deliveries.
type Server struct {
	guard      ActivityHandler
	secret     []byte
	logger     *slog.Logger
	mux        *http.ServeMux
	httpServer *http.Server
}

// ServerConfig holds configuration for the webhook server.
type ServerConfig struct {
	Guard  ActivityHandler
	Secret []byte // HMAC secret; empty disables signature checks
	Logger *slog.Logger
}

// NewServer creates a new webhook server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		guard:  cfg.Guard,
		secret: cfg.Secret,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/webhook", s.handleWebhook)
	s.mux.HandleFunc("/health", s.handleHealth)

	return s
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for use with custom servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Response is the JSON response body.
type Response struct {
	Success  bool   `json:"success"`
	Event    string `json:"event,omitempty"`
	Unmarked bool   `json:"unmarked"`
	Ignored  bool   `json:"ignored,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleWebhook handles POST /webhook
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed: use POST")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer func() { _ = r.Body.Close() }()

	if len(s.secret) > 0 {
		if err := VerifySignature(s.secret, body, r.Header.Get(SignatureHeader)); err != nil {
			s.writeError(w, http.StatusUnauthorized, fmt.Sprintf("invalid signature: %v", err))
			return
		}
	}

	eventType := gh.WebHookType(r)
	log := s.logger.With("event", eventType, "delivery", gh.DeliveryID(r))
	switch eventType {
	case "":
		s.writeError(w, http.StatusBadRequest, "missing X-GitHub-Event header")
		return
	case "ping":
		s.writeJSON(w, http.StatusOK, Response{Success: true, Event: eventType})
		return
	case "issue_comment", "issues", "pull_request", "pull_request_review", "pull_request_review_comment":
	default:
		log.Debug("ignoring event")
		s.writeJSON(w, http.StatusAccepted, Response{Success: true, Event: eventType, Ignored: true})
		return
	}

	event, err := gh.ParseWebHook(eventType, body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	activity, ok := ActivityFromEvent(event)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "payload has no issue or pull request")
		return
	}

	unmarked, err := s.guard.Handle(r.Context(), activity)
	if err != nil {
		log.Error("activity handling failed", "repo", activity.Owner+"/"+activity.Repo,
			"number", activity.Item.Number, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if unmarked {
		log.Info("unmarked", "repo", activity.Owner+"/"+activity.Repo, "number", activity.Item.Number)
	}
	s.writeJSON(w, http.StatusOK, Response{Success: true, Event: eventType, Unmarked: unmarked})
}

// ActivityFromEvent converts a parsed webhook payload into guard input. It
// reports false for events that carry no issue or pull request.
func ActivityFromEvent(event any) (stale.Activity, bool) {
	var (
		a      stale.Activity
		repo   *gh.Repository
		sender *gh.User
	)
	switch e := event.(type) {
	case *gh.IssueCommentEvent:
		if e.Issue == nil {
			return a, false
		}
		a.Action = e.GetAction()
		a.Item = ghadapter.IssueItem(e.Issue)
		a.LabelsKnown = e.Issue.Labels != nil
		repo, sender = e.Repo, e.Sender
	case *gh.IssuesEvent:
		if e.Issue == nil {
			return a, false
		}
		a.Action = e.GetAction()
		a.Label = e.GetLabel().GetName()
		a.Item = ghadapter.IssueItem(e.Issue)
		a.LabelsKnown = e.Issue.Labels != nil
		repo, sender = e.Repo, e.Sender
	case *gh.PullRequestEvent:
		if e.PullRequest == nil {
			return a, false
		}
		a.Action = e.GetAction()
		a.Label = e.GetLabel().GetName()
		a.Item = ghadapter.PullRequestItem(e.PullRequest)
		a.LabelsKnown = e.PullRequest.Labels != nil
		repo, sender = e.Repo, e.Sender
	case *gh.PullRequestReviewEvent:
		if e.PullRequest == nil {
			return a, false
		}
		a.Action = e.GetAction()
		a.Item = ghadapter.PullRequestItem(e.PullRequest)
		a.LabelsKnown = e.PullRequest.Labels != nil
		repo, sender = e.Repo, e.Sender
	case *gh.PullRequestReviewCommentEvent:
		if e.PullRequest == nil {
			return a, false
		}
		a.Action = e.GetAction()
		a.Item = ghadapter.PullRequestItem(e.PullRequest)
		a.LabelsKnown = e.PullRequest.Labels != nil
		repo, sender = e.Repo, e.Sender
	default:
		return a, false
	}

	a.Owner = repo.GetOwner().GetLogin()
	a.Repo = repo.GetName()
	a.Sender = sender.GetLogin()
	a.SenderType = sender.GetType()
	a.Type = policy.Issues
	if a.Item.PullRequest {
		a.Type = policy.Pulls
	}
	return a, true
}

// handleHealth handles GET /health for load balancer checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, Response{Success: false, Error: message})
}
