package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/journeykeeper/internal/client/auth"
	"github.com/dmitrijs2005/journeykeeper/internal/client/client"
	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/journeys"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/session"
)

var ErrNoJourney = errors.New("account has no primary journey")

// AuthAPI is the part of the backend the session service needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, token string) (*client.User, error)
}

type SessionService struct {
	api      AuthAPI
	sessions session.Repository
	journeys journeys.Repository
}

func NewSessionService(api AuthAPI, sessions session.Repository, journeys journeys.Repository) *SessionService {
	return &SessionService{api: api, sessions: sessions, journeys: journeys}
}

// Login authenticates, resolves the user's primary journey and stores the
// resulting session locally.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	user, err := s.api.Me(ctx, token)
	if err != nil {
		return nil, err
	}
	if user.PrimaryJourneyID == nil || *user.PrimaryJourneyID == "" {
		return nil, ErrNoJourney
	}

	sess, err := auth.ParseSession(token, *user.PrimaryJourneyID)
	if err != nil {
		return nil, err
	}
	if sess.UserID == "" {
		sess.UserID = user.ID
	}
	if sess.Email == "" {
		sess.Email = email
	}

	if err := s.journeys.UpsertJourney(ctx, models.Journey{
		ID:       sess.JourneyID,
		ServerID: user.PrimaryJourneyID,
		Title:    user.DisplayName,
		UserID:   sess.UserID,
	}); err != nil {
		return nil, fmt.Errorf("store journey: %w", err)
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &sess, nil
}

// Load returns the stored session or common.ErrNotFound.
func (s *SessionService) Load(ctx context.Context) (*models.Session, error) {
	return s.sessions.Load(ctx)
}

func (s *SessionService) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}
