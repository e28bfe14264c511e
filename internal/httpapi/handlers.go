// ABOUTME: Request handlers for the patio JSON API
// ABOUTME: Maps service errors onto HTTP status codes

package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/patiochat/patio/internal/auth"
	"github.com/patiochat/patio/internal/chat"
	"github.com/patiochat/patio/internal/mention"
	"github.com/patiochat/patio/internal/store"
)

const defaultMessageLimit = 50

type userView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type botView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type channelView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type memberView struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channelId"`
	Kind      string    `json:"kind"`
	User      *userView `json:"user,omitempty"`
	Bot       *botView  `json:"bot,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageView struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channelId"`
	MemberID  int64     `json:"memberId"`
	Content   string    `json:"content"`
	ReplyToID int64     `json:"replyToId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type channelMessageView struct {
	messageView
	AuthorKind string `json:"authorKind"`
	AuthorName string `json:"authorName"`
}

func newUserView(u *store.User) *userView {
	return &userView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func newChannelView(c *store.Channel) channelView {
	return channelView{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func newMessageView(m *store.Message) messageView {
	return messageView{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		MemberID:  m.MemberID,
		Content:   m.Content,
		ReplyToID: m.ReplyToID,
		CreatedAt: m.CreatedAt,
	}
}

func newMemberView(rec *store.MemberRecord) memberView {
	v := memberView{
		ID:        rec.ID,
		ChannelID: rec.ChannelID,
		Kind:      string(rec.Kind),
		CreatedAt: rec.CreatedAt,
	}
	switch rec.Kind {
	case store.MemberUser:
		v.User = &userView{ID: rec.UserID, Name: rec.UserName, Email: rec.UserEmail}
	case store.MemberBot:
		v.Bot = &botView{ID: rec.BotID, Name: rec.BotName, Active: rec.BotActive}
	}
	return v
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrDuplicateUser):
		writeError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		s.logger.Error("signup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  newUserView(user),
		"token": token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	case err != nil:
		s.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  newUserView(user),
		"token": token,
	})
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "channel name required")
		return
	}

	channel, err := s.chat.CreateChannel(r.Context(), req.Name)
	if err != nil {
		s.logger.Error("channel creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, newChannelView(channel))
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.chat.ListChannels(r.Context())
	if err != nil {
		s.logger.Error("channel listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]channelView, 0, len(channels))
	for _, c := range channels {
		views = append(views, newChannelView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleJoinChannel(w http.ResponseWriter, r *http.Request) {
	channelID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}

	// The authenticated user joins unless the body names someone else
	var req struct {
		UserID int64 `json:"userId"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := req.UserID
	if userID == 0 {
		userID = authedUserID(r)
	}

	member, err := s.chat.JoinChannel(r.Context(), channelID, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "channel or user not found")
		return
	case errors.Is(err, store.ErrDuplicateMember):
		writeError(w, http.StatusConflict, "already a member")
		return
	case err != nil:
		s.logger.Error("channel join failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, memberView{
		ID:        member.ID,
		ChannelID: member.ChannelID,
		Kind:      string(member.Kind),
		CreatedAt: member.CreatedAt,
	})
}

func (s *Server) handleLeaveChannel(w http.ResponseWriter, r *http.Request) {
	channelID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	err = s.chat.LeaveChannel(r.Context(), channelID, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "membership not found")
		return
	case err != nil:
		s.logger.Error("channel leave failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	channelID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}

	members, err := s.chat.ListMembers(r.Context(), channelID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "channel not found")
		return
	case err != nil:
		s.logger.Error("member listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, newMemberView(m))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64              `json:"channelId"`
		MemberID  int64              `json:"memberId"`
		Content   string             `json:"content"`
		Mentions  []mention.Explicit `json:"mentions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := s.chat.CreateMessage(r.Context(), req.ChannelID, req.MemberID, req.Content, req.Mentions)
	switch {
	case errors.Is(err, chat.ErrInvalidContent):
		writeError(w, http.StatusBadRequest, "message content required")
		return
	case errors.Is(err, chat.ErrNotChannelMember):
		writeError(w, http.StatusForbidden, "not a member of this channel")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "membership not found")
		return
	case err != nil:
		s.logger.Error("message creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, newMessageView(msg))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	channelID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}

	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	msgs, err := s.chat.ListChannelMessages(r.Context(), channelID, limit)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "channel not found")
		return
	case err != nil:
		s.logger.Error("message listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]channelMessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, channelMessageView{
			messageView: newMessageView(&m.Message),
			AuthorKind:  string(m.AuthorKind),
			AuthorName:  m.AuthorName,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	err = s.chat.DeleteMessage(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
		return
	case err != nil:
		s.logger.Error("message deletion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses a numeric path parameter
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
