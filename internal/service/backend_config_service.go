package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-roleplay-be/internal/config"
	"ai-roleplay-be/internal/dto"
	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/repository/specification"
	"ai-roleplay-be/internal/repository/unitofwork"
	"ai-roleplay-be/pkg/generation"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var ErrBackendConfigNotFound = errors.New("backend config not found")

type IBackendConfigService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateBackendConfigRequest) (*dto.BackendConfigResponse, error)
	Update(ctx context.Context, userId, configId uuid.UUID, req *dto.UpdateBackendConfigRequest) (*dto.BackendConfigResponse, error)
	Delete(ctx context.Context, userId, configId uuid.UUID) error
	Activate(ctx context.Context, userId, configId uuid.UUID) error
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.BackendConfigResponse, error)

	// ActiveForUser resolves the user's active backend for the generation
	// engine. nil config with nil error means none is configured.
	ActiveForUser(ctx context.Context, userId uuid.UUID) (*generation.BackendConfig, error)
	// ProviderFor adapts this service to generation.ConfigProvider for one user.
	ProviderFor(userId uuid.UUID) generation.ConfigProvider
}

type backendConfigService struct {
	uowFactory unitofwork.RepositoryFactory
	cfg        *config.Config
	log        logger.ILogger

	// activeCache keeps resolved active configs hot; every session start
	// hits this path.
	activeCache *cache.Cache
}

func NewBackendConfigService(uowFactory unitofwork.RepositoryFactory, cfg *config.Config, log logger.ILogger) IBackendConfigService {
	return &backendConfigService{
		uowFactory:  uowFactory,
		cfg:         cfg,
		log:         log,
		activeCache: cache.New(1*time.Minute, 5*time.Minute),
	}
}

func (s *backendConfigService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateBackendConfigRequest) (*dto.BackendConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	config := &entity.BackendConfig{
		Id:        uuid.New(),
		UserId:    userId,
		Name:      req.Name,
		Kind:      req.Kind,
		BaseURL:   req.BaseURL,
		APIKey:    req.APIKey,
		Model:     req.Model,
		Sampling:  req.Sampling,
		CreatedAt: time.Now(),
	}

	if err := uow.BackendConfigRepository().Create(ctx, config); err != nil {
		return nil, err
	}

	return toBackendConfigResponse(config), nil
}

func (s *backendConfigService) Update(ctx context.Context, userId, configId uuid.UUID, req *dto.UpdateBackendConfigRequest) (*dto.BackendConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	config, err := s.findOwned(ctx, uow, userId, configId)
	if err != nil {
		return nil, err
	}

	config.Name = req.Name
	config.Kind = req.Kind
	config.BaseURL = req.BaseURL
	config.Model = req.Model
	config.Sampling = req.Sampling
	// Empty API key means "keep the stored one"; configs are edited without
	// re-entering the secret.
	if req.APIKey != "" {
		config.APIKey = req.APIKey
	}

	if err := uow.BackendConfigRepository().Update(ctx, config); err != nil {
		return nil, err
	}

	s.invalidate(userId)
	return toBackendConfigResponse(config), nil
}

func (s *backendConfigService) Delete(ctx context.Context, userId, configId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	config, err := s.findOwned(ctx, uow, userId, configId)
	if err != nil {
		return err
	}

	if err := uow.BackendConfigRepository().Delete(ctx, config.Id); err != nil {
		return err
	}

	s.invalidate(userId)
	return nil
}

func (s *backendConfigService) Activate(ctx context.Context, userId, configId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	config, err := s.findOwned(ctx, uow, userId, configId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.BackendConfigRepository().DeactivateAll(ctx, userId); err != nil {
		return err
	}

	config.Active = true
	if err := uow.BackendConfigRepository().Update(ctx, config); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.invalidate(userId)
	s.log.Info("Backend", "Backend activated", map[string]interface{}{
		"config_id": configId,
		"user_id":   userId,
		"kind":      config.Kind,
		"model":     config.Model,
	})
	return nil
}

func (s *backendConfigService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.BackendConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	configs, err := uow.BackendConfigRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.BackendConfigResponse, len(configs))
	for i, c := range configs {
		res[i] = toBackendConfigResponse(c)
	}
	return res, nil
}

func (s *backendConfigService) ActiveForUser(ctx context.Context, userId uuid.UUID) (*generation.BackendConfig, error) {
	key := userId.String()
	if x, found := s.activeCache.Get(key); found {
		cached, _ := x.(*generation.BackendConfig)
		return cached, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	config, err := uow.BackendConfigRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveConfig{},
	)
	if err != nil {
		return nil, err
	}
	if config == nil {
		fallback := s.deploymentFallback()
		s.activeCache.Set(key, fallback, cache.DefaultExpiration)
		return fallback, nil
	}

	resolved := &generation.BackendConfig{
		Kind:     config.Kind,
		BaseURL:  config.BaseURL,
		APIKey:   config.APIKey,
		Model:    config.Model,
		Sampling: config.Sampling,
	}
	s.activeCache.Set(key, resolved, cache.DefaultExpiration)
	return resolved, nil
}

// deploymentFallback builds a backend from the LLM_PROVIDER/LLM_MODEL env
// pair, or nil when the operator configured none.
func (s *backendConfigService) deploymentFallback() *generation.BackendConfig {
	if s.cfg == nil || s.cfg.Ai.DefaultLLMProvider == "" {
		return nil
	}
	return &generation.BackendConfig{
		Kind:    s.cfg.Ai.DefaultLLMProvider,
		BaseURL: s.cfg.Ai.OllamaBaseURL,
		Model:   s.cfg.Ai.DefaultLLMModel,
	}
}

func (s *backendConfigService) ProviderFor(userId uuid.UUID) generation.ConfigProvider {
	return userConfigProvider{svc: s, userId: userId}
}

type userConfigProvider struct {
	svc    *backendConfigService
	userId uuid.UUID
}

func (p userConfigProvider) ActiveBackendConfig(ctx context.Context) (*generation.BackendConfig, error) {
	return p.svc.ActiveForUser(ctx, p.userId)
}

func (s *backendConfigService) invalidate(userId uuid.UUID) {
	s.activeCache.Delete(userId.String())
}

func (s *backendConfigService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, configId uuid.UUID) (*entity.BackendConfig, error) {
	config, err := uow.BackendConfigRepository().FindOne(ctx,
		specification.ByID{ID: configId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, fmt.Errorf("find backend config: %w", err)
	}
	if config == nil {
		return nil, ErrBackendConfigNotFound
	}
	return config, nil
}

func toBackendConfigResponse(c *entity.BackendConfig) *dto.BackendConfigResponse {
	return &dto.BackendConfigResponse{
		Id:        c.Id,
		Name:      c.Name,
		Kind:      c.Kind,
		BaseURL:   c.BaseURL,
		Model:     c.Model,
		Sampling:  c.Sampling,
		Active:    c.Active,
		HasAPIKey: c.APIKey != "",
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
