package app

import (
	"fmt"

	"github.com/clinsign/clinsign/internal/metrics"
	signatureRepository "github.com/clinsign/clinsign/internal/signature/repository"
	signatureService "github.com/clinsign/clinsign/internal/signature/service"
	signatureUsecase "github.com/clinsign/clinsign/internal/signature/usecase"
)

// SessionRepository returns the signature session repository instance.
func (c *Container) SessionRepository() (signatureUsecase.SessionRepository, error) {
	var err error
	c.sessionRepoInit.Do(func() {
		c.sessionRepo, err = c.initSessionRepository()
		if err != nil {
			c.initErrors["sessionRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionRepo"]; exists {
		return nil, storedErr
	}
	return c.sessionRepo, nil
}

// DocumentRepository returns the signable document repository instance.
func (c *Container) DocumentRepository() (signatureUsecase.DocumentRepository, error) {
	var err error
	c.documentRepoInit.Do(func() {
		c.documentRepo, err = c.initDocumentRepository()
		if err != nil {
			c.initErrors["documentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentRepo"]; exists {
		return nil, storedErr
	}
	return c.documentRepo, nil
}

// AuditLogRepository returns the audit log repository instance.
func (c *Container) AuditLogRepository() (signatureUsecase.AuditLogRepository, error) {
	var err error
	c.auditLogRepoInit.Do(func() {
		c.auditLogRepo, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepo"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepo, nil
}

// SignatureUseCase returns the signature use case instance.
func (c *Container) SignatureUseCase() (signatureUsecase.SignatureUseCase, error) {
	var err error
	c.signatureUseCaseInit.Do(func() {
		c.signatureUseCase, err = c.initSignatureUseCase()
		if err != nil {
			c.initErrors["signatureUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signatureUseCase"]; exists {
		return nil, storedErr
	}
	return c.signatureUseCase, nil
}

// AuditVerifier returns the audit log integrity verifier instance.
func (c *Container) AuditVerifier() (signatureUsecase.AuditVerifier, error) {
	var err error
	c.auditVerifierInit.Do(func() {
		c.auditVerifier, err = c.initAuditVerifier()
		if err != nil {
			c.initErrors["auditVerifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditVerifier"]; exists {
		return nil, storedErr
	}
	return c.auditVerifier, nil
}

// initSessionRepository creates the signature session repository instance.
func (c *Container) initSessionRepository() (signatureUsecase.SessionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for session repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return signatureRepository.NewMySQLSessionRepository(db), nil
	case "postgres":
		return signatureRepository.NewPostgreSQLSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDocumentRepository creates the signable document repository instance.
func (c *Container) initDocumentRepository() (signatureUsecase.DocumentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for document repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return signatureRepository.NewMySQLDocumentRepository(db), nil
	case "postgres":
		return signatureRepository.NewPostgreSQLDocumentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditLogRepository creates the audit log repository instance.
func (c *Container) initAuditLogRepository() (signatureUsecase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return signatureRepository.NewMySQLAuditLogRepository(db), nil
	case "postgres":
		return signatureRepository.NewPostgreSQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditVerifier creates the audit log integrity verifier.
func (c *Container) initAuditVerifier() (signatureUsecase.AuditVerifier, error) {
	auditLogRepo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit verifier: %w", err)
	}

	return signatureUsecase.NewAuditVerifier(
		c.config,
		auditLogRepo,
		signatureService.NewAuditSigner(),
	), nil
}

// initSignatureUseCase creates the signature use case with all its dependencies.
//
// The provider client is only built when the external certificate authority is
// fully configured; otherwise the use case runs with the mock signer fallback.
// When metrics are enabled the use case is wrapped with the metrics decorator.
func (c *Container) initSignatureUseCase() (signatureUsecase.SignatureUseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for signature use case: %w", err)
	}

	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for signature use case: %w", err)
	}

	documentRepo, err := c.DocumentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get document repository for signature use case: %w", err)
	}

	auditLogRepo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for signature use case: %w", err)
	}

	var providerClient signatureService.CertificateAuthorityClient
	if c.config.SignProviderConfigured() {
		providerClient = signatureService.NewProviderClient(signatureService.ProviderConfig{
			BaseURL:      c.config.SignProviderBaseURL,
			ClientID:     c.config.SignProviderClientID,
			ClientSecret: c.config.SignProviderClientSecret,
			RedirectURL:  c.config.SignProviderRedirectURL,
		})
	}

	useCase := signatureUsecase.NewSignatureUseCase(
		c.config,
		txManager,
		sessionRepo,
		documentRepo,
		auditLogRepo,
		signatureService.NewChallengeGenerator(),
		providerClient,
		signatureService.NewTrustPolicy(c.config.IsProduction()),
		signatureService.NewMockSigner(),
		signatureService.NewAuditSigner(),
		logger,
	)

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for signature use case: %w", err)
	}
	if metricsProvider != nil {
		businessMetrics, err := metrics.NewBusinessMetrics(
			metricsProvider.MeterProvider(),
			c.config.MetricsNamespace,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
		useCase = signatureUsecase.NewSignatureUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}
