package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/seismic-data-api/internal/auth"
	"github.com/couchcryptid/seismic-data-api/internal/domain"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

type contactAccepted struct {
	ID string `json:"id"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := decodeBody(w, r, &reg); err != nil {
		writeError(w, s.logger, err)
		return
	}
	reg = reg.Normalize()
	if err := reg.Validate(); err != nil {
		writeError(w, s.logger, err)
		return
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hash,
		CreatedAt:    domain.Now(),
	}
	if err := s.deps.Users.Create(r.Context(), user); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.Registrations.Inc()
	}
	s.logger.Info("user registered", "user_id", user.ID)
	writeData(w, http.StatusCreated, "User registered", user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	resp, err := s.login(r, req)
	if err != nil {
		s.countLogin("failure")
		writeError(w, s.logger, err)
		return
	}
	s.countLogin("success")
	writeData(w, http.StatusOK, "Login successful", resp)
}

func (s *Server) login(r *http.Request, req loginRequest) (loginResponse, error) {
	user, err := s.deps.Users.FindByEmail(r.Context(), domain.NormalizeEmail(req.Email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return loginResponse{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return loginResponse{}, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return loginResponse{}, err
	}
	token, expires, err := s.deps.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		return loginResponse{}, err
	}
	return loginResponse{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *Server) countLogin(outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.Logins.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Users.FindByID(r.Context(), auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, http.StatusOK, "Profile retrieved", user)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg domain.ContactMessage
	if err := decodeBody(w, r, &msg); err != nil {
		writeError(w, s.logger, err)
		return
	}
	msg = msg.Normalize()
	if err := msg.Validate(); err != nil {
		writeError(w, s.logger, err)
		return
	}
	msg.ID = uuid.NewString()
	msg.ReceivedAt = domain.Now()

	if err := s.deps.Contacts.Publish(r.Context(), msg); err != nil {
		s.countContact("error")
		writeError(w, s.logger, err)
		return
	}
	s.countContact("success")
	writeData(w, http.StatusAccepted, "Message received", contactAccepted{ID: msg.ID})
}

func (s *Server) countContact(outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ContactsPublished.WithLabelValues(outcome).Inc()
	}
}

// decodeBody reads a size-limited JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	return nil
}
