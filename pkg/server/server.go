package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/fillserve/internal/logger"
	"github.com/bastiangx/fillserve/internal/utils"
	"github.com/bastiangx/fillserve/pkg/config"
	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/profile"
	"github.com/bastiangx/fillserve/pkg/sequence"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const defaultCompleteLimit = 10

// Server handles the IPC for one model
type Server struct {
	model      *sequence.Model
	classifier *field.Classifier
	profiles   *profile.Book
	saveBook   profile.Saver
	config     *config.Config
	reader     *bufio.Reader
	writer     io.Writer
	log        *log.Logger

	requestCount int
}

// NewServer creates a server using stdin/stdout for IPC.
// profiles may be nil, in which case fill requests fail with 400.
func NewServer(model *sequence.Model, classifier *field.Classifier, profiles *profile.Book, cfg *config.Config) *Server {
	return NewServerWithIO(model, classifier, profiles, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO is NewServer over arbitrary streams
func NewServerWithIO(model *sequence.Model, classifier *field.Classifier, profiles *profile.Book, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if classifier == nil {
		classifier = cfg.NewClassifier()
	}
	return &Server{
		model:      model,
		classifier: classifier,
		profiles:   profiles,
		config:     cfg,
		reader:     bufio.NewReader(r),
		writer:     w,
		log:        logger.New("server"),
	}
}

// SetProfileSaver sets where profile edits are written. Without one,
// edits live only as long as the server.
func (s *Server) SetProfileSaver(fn profile.Saver) {
	s.saveBook = fn
}

// Start announces readiness and serves requests until the input ends or
// ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting Server.")
	s.sendResponse(StatusResponse{Status: "ready", Session: s.model.SessionID()})

	dec := msgpack.NewDecoder(s.reader)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("Input closed after %d requests", s.requestCount)
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return err
		}

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.log.Errorf("Unmarshaling request: %v", err)
			s.sendError("", "invalid request", 400)
			continue
		}
		s.requestCount++
		s.handleRequest(ctx, req)
	}
}

// handleRequest dispatches on op
func (s *Server) handleRequest(ctx context.Context, req Request) {
	s.log.Debug("Request", "id", req.ID, "op", req.Op)

	switch req.Op {
	case "health":
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Session: s.model.SessionID()})
	case "classify":
		s.handleClassify(req)
	case "observe":
		s.handleObserve(ctx, req)
	case "suggest":
		s.handleSuggest(req, s.model.Suggest)
	case "predict":
		s.handleSuggest(req, func(t field.Type, _ map[field.Type]string) []string {
			return s.model.Predict(t)
		})
	case "complete":
		s.handleComplete(req)
	case "known":
		values := make(map[string][]string)
		for t, v := range s.model.AllKnownValues() {
			values[t.String()] = v
		}
		s.sendResponse(KnownResponse{ID: req.ID, Values: values})
	case "last":
		values := make(map[string]string)
		for t, v := range s.model.LastSeen() {
			values[t.String()] = v
		}
		s.sendResponse(LastResponse{ID: req.ID, Values: values})
	case "refresh":
		if err := s.model.Refresh(ctx); err != nil {
			s.sendError(req.ID, err.Error(), 500)
			return
		}
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	case "fill":
		s.handleFill(req)
	case "profiles":
		s.handleProfiles(req)
	case "saveProfile":
		s.handleSaveProfile(ctx, req)
	case "deleteProfile":
		s.handleDeleteProfile(ctx, req)
	case "stats":
		s.sendResponse(StatsResponse{ID: req.ID, Stats: s.model.Stats()})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown op: %q", req.Op), 400)
	}
}

func (s *Server) handleClassify(req Request) {
	if req.Field == nil {
		s.sendError(req.ID, "missing 'f' descriptor", 400)
		return
	}
	resp := ClassifyResponse{ID: req.ID, Fillable: req.Field.IsFillable()}
	if t, ok := s.classifier.Classify(*req.Field); ok {
		resp.Type = t.String()
	}
	s.sendResponse(resp)
}

func (s *Server) handleObserve(ctx context.Context, req Request) {
	t, ok := s.fieldType(req)
	if !ok {
		return
	}
	if n := utf8.RuneCountInString(req.Value); n > s.config.Server.MaxValueLen {
		s.sendError(req.ID, fmt.Sprintf("value exceeds maximum length of %d characters", s.config.Server.MaxValueLen), 400)
		return
	}

	accepted, err := s.model.Observe(ctx, t, req.Value, s.related(req))
	if err != nil {
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	s.sendResponse(ObserveResponse{ID: req.ID, Accepted: accepted})
}

func (s *Server) handleSuggest(req Request, rank func(field.Type, map[field.Type]string) []string) {
	t, ok := s.fieldType(req)
	if !ok {
		return
	}

	start := time.Now()
	values := rank(t, s.related(req))
	elapsed := time.Since(start)

	ranks := utils.CreateRankList(len(values))
	suggestions := make([]Suggestion, len(values))
	for i, v := range values {
		suggestions[i] = Suggestion{Value: v, Rank: ranks[i]}
	}
	s.sendResponse(SuggestionResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleComplete(req Request) {
	t, ok := s.fieldType(req)
	if !ok {
		return
	}
	if utf8.RuneCountInString(req.Prefix) > s.config.Server.MaxValueLen {
		s.sendError(req.ID, fmt.Sprintf("prefix exceeds maximum length of %d characters", s.config.Server.MaxValueLen), 400)
		return
	}

	limit := req.Limit
	if limit < 1 {
		limit = defaultCompleteLimit
	}
	if s.config.Server.MaxLimit > 0 && limit > s.config.Server.MaxLimit {
		limit = s.config.Server.MaxLimit
	}

	start := time.Now()
	completions := s.model.Complete(t, req.Prefix, limit)
	elapsed := time.Since(start)

	s.sendResponse(CompletionResponse{
		ID:          req.ID,
		Completions: completions,
		Count:       len(completions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleFill(req Request) {
	if s.profiles == nil {
		s.sendError(req.ID, "no profiles loaded", 400)
		return
	}
	p, err := s.profiles.Get(req.Profile)
	if err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}
	s.sendResponse(FillResponse{
		ID:          req.ID,
		Profile:     p.Name,
		Assignments: p.Fill(s.classifier, req.Fields),
	})
}

func (s *Server) handleProfiles(req Request) {
	if s.profiles == nil {
		s.sendError(req.ID, "no profiles loaded", 400)
		return
	}
	entries := make([]ProfileEntry, 0, len(s.profiles.Profiles))
	for _, p := range s.profiles.Profiles {
		values := make(map[string]string)
		for t, v := range p.Values() {
			values[t.String()] = v
		}
		entries = append(entries, ProfileEntry{Name: p.Name, Values: values})
	}
	s.sendResponse(ProfilesResponse{ID: req.ID, Default: s.profiles.Default, Profiles: entries})
}

func (s *Server) handleSaveProfile(ctx context.Context, req Request) {
	if s.profiles == nil {
		s.sendError(req.ID, "no profiles loaded", 400)
		return
	}
	if req.Entry == nil {
		s.sendError(req.ID, "missing 'pe' profile", 400)
		return
	}
	if err := req.Entry.Validate(s.model.Config().Validators); err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}

	s.profiles.Put(*req.Entry)
	if req.Default {
		s.profiles.Default = req.Entry.Name
	}
	s.persistProfiles(ctx, req.ID)
}

func (s *Server) handleDeleteProfile(ctx context.Context, req Request) {
	if s.profiles == nil {
		s.sendError(req.ID, "no profiles loaded", 400)
		return
	}
	if !s.profiles.Remove(req.Profile) {
		s.sendError(req.ID, fmt.Sprintf("%v: %q", profile.ErrNoProfile, req.Profile), 400)
		return
	}
	s.persistProfiles(ctx, req.ID)
}

// persistProfiles writes the book back and answers the request
func (s *Server) persistProfiles(ctx context.Context, id string) {
	if s.saveBook == nil {
		s.log.Debug("No profile saver set, keeping edits in memory")
	} else if err := s.saveBook(ctx, s.profiles); err != nil {
		s.log.Errorf("Saving profiles: %v", err)
		s.sendError(id, err.Error(), 500)
		return
	}
	s.log.Debugf("Profiles now: %v", s.profiles.Names())
	s.sendResponse(StatusResponse{ID: id, Status: "ok"})
}

// fieldType parses req.Type, answering 400 itself when it is unknown
func (s *Server) fieldType(req Request) (field.Type, bool) {
	t, ok := field.Parse(req.Type)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown field type: %q", req.Type), 400)
	}
	return t, ok
}

// related converts the wire snapshot; a missing snapshot stays nil
func (s *Server) related(req Request) map[field.Type]string {
	if req.Related == nil {
		return nil
	}
	out := make(map[field.Type]string, len(req.Related))
	for name, v := range req.Related {
		t, ok := field.Parse(name)
		if !ok {
			s.log.Debugf("Ignoring unknown related field %q", name)
			continue
		}
		out[t] = v
	}
	return out
}

// sendResponse encodes one response onto the writer
func (s *Server) sendResponse(response any) {
	data, err := msgpack.Marshal(response)
	if err != nil {
		s.log.Errorf("Marshaling response: %v", err)
		return
	}
	if _, err := s.writer.Write(data); err != nil {
		s.log.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}
