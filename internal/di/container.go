// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"directed/internal/config"
	"directed/internal/database"
	"directed/internal/handlers"
	"directed/internal/llm"
	"directed/internal/observability"
	"directed/internal/retrieval"
	"directed/internal/serviceinterfaces"
	"directed/internal/services"
	contextutils "directed/internal/utils"
)

// Service registry keys
const (
	ServiceContent   = "content"
	ServiceProfiles  = "profiles"
	ServiceAssistant = "assistant"
	ServiceAdaptive  = "adaptive"
	ServicePipeline  = "pipeline"
	ServiceRetriever = "retriever"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetContentService() (serviceinterfaces.ContentService, error)
	GetProfileStore() (serviceinterfaces.ProfileStore, error)
	GetAssistant() (serviceinterfaces.AssistantRunner, error)
	GetAdaptiveLearner() (serviceinterfaces.AdaptiveLearner, error)
	GetPipeline() (serviceinterfaces.PipelineRunner, error)
	GetRetriever() (*retrieval.Retriever, error)
	GetCaller() *llm.Caller
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	caller        *llm.Caller
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.initializeServices(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize services: %w", err)
	}

	sc.logger.Info(ctx, "Services initialized", map[string]interface{}{
		"llm_provider":  sc.cfg.LLM.Provider,
		"llm_model":     sc.caller.ModelID(),
		"llm_api_key":   contextutils.MaskAPIKey(sc.cfg.LLM.APIKey),
		"retrieval":     sc.cfg.Retrieval.Enabled,
		"profile_store": sc.cfg.ProfileStore.Driver,
		"llm_quiz":      sc.cfg.Content.LLMQuiz,
	})
	return nil
}

// GetService retrieves a service by name
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetContentService returns the content generator
func (sc *ServiceContainer) GetContentService() (serviceinterfaces.ContentService, error) {
	return GetServiceAs[serviceinterfaces.ContentService](sc, ServiceContent)
}

// GetProfileStore returns the configured profile store
func (sc *ServiceContainer) GetProfileStore() (serviceinterfaces.ProfileStore, error) {
	return GetServiceAs[serviceinterfaces.ProfileStore](sc, ServiceProfiles)
}

// GetAssistant returns the orchestrator
func (sc *ServiceContainer) GetAssistant() (serviceinterfaces.AssistantRunner, error) {
	return GetServiceAs[serviceinterfaces.AssistantRunner](sc, ServiceAssistant)
}

// GetAdaptiveLearner returns the adaptive learning service
func (sc *ServiceContainer) GetAdaptiveLearner() (serviceinterfaces.AdaptiveLearner, error) {
	return GetServiceAs[serviceinterfaces.AdaptiveLearner](sc, ServiceAdaptive)
}

// GetPipeline returns the learning pipeline
func (sc *ServiceContainer) GetPipeline() (serviceinterfaces.PipelineRunner, error) {
	return GetServiceAs[serviceinterfaces.PipelineRunner](sc, ServicePipeline)
}

// GetRetriever returns the retriever; it errors when retrieval is disabled
func (sc *ServiceContainer) GetRetriever() (*retrieval.Retriever, error) {
	return GetServiceAs[*retrieval.Retriever](sc, ServiceRetriever)
}

// GetCaller returns the model caller, nil when no provider is configured
func (sc *ServiceContainer) GetCaller() *llm.Caller {
	return sc.caller
}

// GetDatabase returns the database instance, nil with the memory profile store
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// NewSessionStore returns a fresh in-memory profile store for a single invocation
func (sc *ServiceContainer) NewSessionStore() serviceinterfaces.ProfileStore {
	return services.NewMemoryProfileStore(sc.logger)
}

// HandlerServices collects the initialized services for the HTTP router
func (sc *ServiceContainer) HandlerServices() (handlers.Services, error) {
	var (
		svc handlers.Services
		err error
	)
	if svc.Assistant, err = sc.GetAssistant(); err != nil {
		return svc, err
	}
	if svc.Content, err = sc.GetContentService(); err != nil {
		return svc, err
	}
	if svc.Profiles, err = sc.GetProfileStore(); err != nil {
		return svc, err
	}
	if svc.Adaptive, err = sc.GetAdaptiveLearner(); err != nil {
		return svc, err
	}
	if svc.Pipeline, err = sc.GetPipeline(); err != nil {
		return svc, err
	}
	svc.SessionStore = sc.NewSessionStore
	return svc, nil
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs shutdown functions in reverse order of registration
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errs = append(errs, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}

// initializeServices builds collaborators bottom-up: model, retriever, profile store, then services
func (sc *ServiceContainer) initializeServices(ctx context.Context) error {
	if sc.cfg.LLMEnabled() {
		provider, err := llm.NewProvider(ctx, sc.cfg.LLM, sc.logger, sc.cfg.Server.MaxAIConcurrent)
		if err != nil {
			return err
		}
		sc.caller = llm.NewCaller(provider, sc.cfg.LLM)
	}

	var retriever serviceinterfaces.Retriever
	if sc.cfg.Retrieval.Enabled {
		r, err := sc.initRetriever(ctx)
		if err != nil {
			return err
		}
		sc.services[ServiceRetriever] = r
		retriever = r
	}

	store, err := sc.initProfileStore(ctx)
	if err != nil {
		return err
	}
	sc.services[ServiceProfiles] = store

	templates, err := services.NewPromptTemplateManager()
	if err != nil {
		return err
	}

	content, err := services.NewContentGenerator(sc.cfg.Content, sc.caller, retriever, templates, sc.logger)
	if err != nil {
		return err
	}
	sc.services[ServiceContent] = content

	metrics, err := observability.NewAssistantMetrics(nil)
	if err != nil {
		sc.logger.Warn(ctx, "Assistant metrics disabled", map[string]interface{}{"error": err.Error()})
	}

	assistant := services.NewAssistantService(sc.cfg.Content, content, store, metrics, sc.logger)
	sc.services[ServiceAssistant] = assistant
	sc.services[ServiceAdaptive] = services.NewAdaptiveLearningService(assistant, store, sc.cfg.Content.Curriculum, sc.logger)
	sc.services[ServicePipeline] = services.NewLearningPipeline(sc.caller, retriever, templates, sc.logger)

	return nil
}

func (sc *ServiceContainer) initRetriever(ctx context.Context) (*retrieval.Retriever, error) {
	client, err := llm.NewGeminiClient(ctx, sc.cfg.Retrieval.APIKey, llm.NewHTTPClient(sc.cfg.LLM))
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to create embedding client: %w", err)
	}
	embedder := retrieval.NewGeminiEmbedder(client, sc.cfg.Retrieval.EmbeddingModel)
	return retrieval.New(sc.cfg.Retrieval, embedder, sc.logger)
}

func (sc *ServiceContainer) initProfileStore(ctx context.Context) (serviceinterfaces.ProfileStore, error) {
	if sc.cfg.ProfileStore.Driver != config.StorePostgres {
		return services.NewMemoryProfileStore(sc.logger), nil
	}

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDB(ctx, sc.cfg.ProfileStore.Database)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to initialize database: %w", err)
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	return services.NewPostgresProfileStore(db, sc.logger), nil
}
