package app

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"ledgerdesk/internal/deadlines"
	"ledgerdesk/pkg/auth"
	"ledgerdesk/pkg/config"
	"ledgerdesk/pkg/httpx"
	"ledgerdesk/pkg/inbox"
	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/store"
	"ledgerdesk/pkg/telemetry"
	"ledgerdesk/pkg/validation"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff     config.EffectiveConfigResult
	version string

	authSvc  *auth.Service
	registry *inbox.Registry

	srv httpx.Server
}

// New initializes everything that does not require a running context:
// config validation, store, validation rules, the auth service and the
// conversation registry. Call Run to start the HTTP server and block
// until shutdown.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	_ = godotenv.Load(".env")

	// validate effective config early and fail fast
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	initValidation(eff)

	// open store
	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}
	telemetry.SetStoreSizer(func() float64 { return float64(store.SizeBytes()) })

	ac := eff.Config.Auth
	authSvc := auth.NewService(
		time.Duration(ac.SessionTTLMinutes)*time.Minute,
		ac.SignInRPS,
		ac.SignInBurst,
	)

	if err := bootstrapAdmin(authSvc, eff); err != nil {
		return nil, err
	}

	// rehydrate the inbox; every mutation writes back through
	convs, err := store.ListConversations()
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	registry := inbox.New(convs, inbox.PersisterFunc(store.SaveConversation))

	return &App{eff: eff, version: version, authSvc: authSvc, registry: registry}, nil
}

// Run starts the deadline scanner and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stopDeadlines, err := deadlines.Start(ctx, a.eff)
	if err != nil {
		return err
	}
	defer stopDeadlines()

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.stopHTTP()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases resources opened by New.
func (a *App) Close() error {
	return store.Close()
}

// bootstrapAdmin creates the configured admin account when the store
// holds no profiles yet, so a fresh deployment has a way in.
func bootstrapAdmin(svc *auth.Service, eff config.EffectiveConfigResult) error {
	b := eff.Config.Auth.Bootstrap
	if b.Email == "" || b.Password == "" {
		return nil
	}
	existing, err := store.ListProfiles()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	name := b.FullName
	if name == "" {
		name = "Administrator"
	}
	p, err := svc.SignUp(context.Background(), b.Email, b.Password, auth.SignUpMeta{
		FullName: name,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	logger.Info("bootstrap_admin_created", "user", p.ID, "email", p.Email)
	return nil
}

// initValidation builds per-collection validation rules from config and
// sets them globally.
func initValidation(eff config.EffectiveConfigResult) {
	rules := map[string]validation.Rules{}
	for collection, cr := range eff.Config.Validation {
		r := validation.Rules{
			Required: append([]string{}, cr.Required...),
			Types:    map[string]string{},
			MaxLen:   map[string]int{},
			Enums:    map[string][]string{},
		}
		for p, t := range cr.Types {
			r.Types[p] = t
		}
		for p, m := range cr.MaxLen {
			r.MaxLen[p] = m
		}
		for p, vals := range cr.Enums {
			r.Enums[p] = append([]string{}, vals...)
		}
		rules[collection] = r
	}
	validation.SetRules(rules)
}
