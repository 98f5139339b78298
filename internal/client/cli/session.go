package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/journeykeeper/internal/client/client"
	"github.com/dmitrijs2005/journeykeeper/internal/client/services"
)

// getSimpleText and getPassword are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var errNoEmail = errors.New("email is required")

// Login authenticates against the backend, stores the session and starts
// syncing under it. The email may be given as the first argument.
func (a *App) Login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}
	if email == "" {
		return errNoEmail
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	s, err := a.sessions.Login(ctx, email, string(password))
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Errorf("server unavailable, try again when online: %w", err)
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("login unsuccessful: wrong email or password")
	case errors.Is(err, services.ErrNoJourney):
		return fmt.Errorf("login unsuccessful: %w", err)
	case err != nil:
		return err
	}

	if a.session != nil {
		a.sync.Cleanup()
	}
	if err := a.sync.Initialize(ctx, *s); err != nil {
		return err
	}
	a.session = s

	a.log.Info(ctx, "logged in", "user_id", s.UserID, "journey_id", s.JourneyID)
	fmt.Fprintf(a.out, "Logged in as %s\n", email)
	return nil
}

// Logout stops syncing and forgets the stored session. Local recordings
// are kept and resume uploading after the next login.
func (a *App) Logout(ctx context.Context, _ []string) error {
	a.sync.Cleanup()
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	a.session = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
