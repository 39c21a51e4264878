package app

import (
	"fmt"

	"github.com/shrimpsizemoose/kardemumma/internal/grading"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

type Service struct {
	Config   *Config
	Store    store.Store
	Auth     *Auth
	Pipeline *grading.Service
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	grader := grading.NewGrader(config.Oracle)
	pipeline := grading.NewService(st, grader, config.Limits.Limits)

	return &Service{
		Config:   config,
		Store:    st,
		Auth:     auth,
		Pipeline: pipeline,
	}, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
