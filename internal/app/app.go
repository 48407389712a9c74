package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/ec-storefront/internal/activity"
	"github.com/example/ec-storefront/internal/apiclient"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/checkout"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/session"
	"github.com/example/ec-storefront/internal/notify"
	"github.com/example/ec-storefront/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("login required")
	ErrForbidden        = errors.New("admin access required")
	ErrOAuthIncomplete  = errors.New("oauth callback is missing token or username")
	ErrUnknownProduct   = errors.New("product is not in the catalog")
)

const msgSessionExpired = "Your session has expired. Please log in again."

type Options struct {
	Store     storage.KeyValueStore
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	Breaker   apiclient.BreakerSettings
	Transport http.RoundTripper
	Notifier  notify.Notifier
	Publisher activity.Publisher
	Navigator Navigator
	Logger    *zap.Logger
}

// State is the one application-state container. It is built once at
// startup and handed to every consumer.
type State struct {
	session   *session.Session
	cart      *cart.Cart
	client    *apiclient.Client
	catalog   *catalog.Catalog
	checkout  *checkout.Orchestrator
	notifier  notify.Notifier
	publisher activity.Publisher
	navigator Navigator
	logger    *zap.Logger
}

// New restores session and cart from the store and wires the HTTP client
// to the session through a token provider and a 401 handler.
func New(ctx context.Context, opts Options) *State {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard{}
	}
	if opts.Publisher == nil {
		opts.Publisher = activity.Nop{}
	}
	if opts.Navigator == nil {
		opts.Navigator = NewHistory(ViewHome)
	}

	s := &State{
		notifier:  opts.Notifier,
		publisher: opts.Publisher,
		navigator: opts.Navigator,
		logger:    opts.Logger.With(zap.String("component", "app")),
	}
	s.session = session.Load(ctx, opts.Store, opts.Publisher, opts.Logger)
	s.cart = cart.Load(ctx, opts.Store, opts.Publisher, opts.Logger)
	s.client = apiclient.New(apiclient.Options{
		BaseURL:        opts.BaseURL,
		Timeout:        opts.Timeout,
		Token:          s.session.Token,
		OnUnauthorized: s.handleUnauthorized,
		Retries:        opts.Retries,
		Breaker:        opts.Breaker,
		Transport:      opts.Transport,
		Logger:         opts.Logger,
	})
	s.catalog = catalog.New(s.client, opts.Notifier, opts.Logger)
	s.checkout = checkout.New(s.session, s.cart, s.client, opts.Notifier, opts.Publisher, opts.Logger)

	s.logger.Info("state restored",
		zap.String("base_url", s.client.BaseURL()),
		zap.Bool("authenticated", s.session.IsAuthenticated()),
		zap.Int("cart_lines", s.cart.Len()))
	return s
}

// Start performs the startup catalog fetch
func (s *State) Start(ctx context.Context) error {
	return s.catalog.Refresh(ctx)
}

func (s *State) Session() *session.Session        { return s.session }
func (s *State) Cart() *cart.Cart                 { return s.cart }
func (s *State) Catalog() *catalog.Catalog        { return s.catalog }
func (s *State) Client() *apiclient.Client        { return s.client }
func (s *State) Checkout() *checkout.Orchestrator { return s.checkout }
func (s *State) Navigator() Navigator             { return s.navigator }

// Login stores a new identity; the next request carries token
func (s *State) Login(ctx context.Context, token, username string, isAdmin bool) error {
	return s.session.Login(ctx, token, username, isAdmin)
}

// Logout clears the identity and the cart, in memory and in the store.
// Memory is cleared even when the store fails.
func (s *State) Logout(ctx context.Context) error {
	err := s.session.Clear(ctx, "logout", storage.KeyCart)
	s.cart.Discard()
	if err != nil {
		s.logger.Error("failed to clear persisted session", zap.Error(err))
		return err
	}
	return nil
}

// SignIn authenticates against the backend and logs in
func (s *State) SignIn(ctx context.Context, username, password string) error {
	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			notify.Error(s.notifier, "Invalid username or password")
		} else {
			notify.Error(s.notifier, "Login failed. Please try again.")
		}
		return err
	}
	return s.completeLogin(ctx, resp)
}

// Register creates an account and logs in with the returned token
func (s *State) Register(ctx context.Context, username, password, fullName string) error {
	resp, err := s.client.Register(ctx, username, password, fullName)
	if err != nil {
		notify.Error(s.notifier, "Registration failed")
		return err
	}
	return s.completeLogin(ctx, resp)
}

func (s *State) completeLogin(ctx context.Context, resp apiclient.AuthResponse) error {
	username := resp.Username
	if err := s.Login(ctx, resp.Token, username, resp.Admin); err != nil {
		notify.Error(s.notifier, "Could not save your session")
		return err
	}
	notify.Success(s.notifier, fmt.Sprintf("Welcome, %s!", username))
	s.navigator.Navigate(ViewHome)
	return nil
}

// CompleteOAuth finishes a provider login from the callback query string
func (s *State) CompleteOAuth(ctx context.Context, rawQuery string) error {
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		s.navigator.Navigate(ViewLogin)
		return fmt.Errorf("%w: %v", ErrOAuthIncomplete, err)
	}
	token := params.Get("token")
	username := params.Get("username")
	if token == "" || username == "" {
		s.navigator.Navigate(ViewLogin)
		return ErrOAuthIncomplete
	}
	if err := s.Login(ctx, token, username, params.Get("isAdmin") == "true"); err != nil {
		return err
	}
	s.navigator.Navigate(ViewHome)
	return nil
}

// handleUnauthorized runs for every 401. Only the first rejection of the
// current token tears the session down; the cart survives.
func (s *State) handleUnauthorized(ctx context.Context, token string) {
	cleared, err := s.session.Invalidate(ctx, token)
	if err != nil {
		s.logger.Error("failed to clear persisted session after 401", zap.Error(err))
	}
	if !cleared {
		return
	}
	s.logger.Warn("session invalidated by backend")
	notify.Info(s.notifier, msgSessionExpired)
	if view := s.navigator.Current(); view != ViewLogin && view != ViewRegister {
		s.navigator.Navigate(ViewLogin)
	}
}

func (s *State) requireUser() error {
	if !s.session.IsAuthenticated() {
		notify.Info(s.notifier, "Please log in first")
		return ErrNotAuthenticated
	}
	return nil
}

func (s *State) requireAdmin() error {
	if err := s.requireUser(); err != nil {
		return err
	}
	if !s.session.IsAdmin() {
		notify.Error(s.notifier, "Admin access required")
		return ErrForbidden
	}
	return nil
}
