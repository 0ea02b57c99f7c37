package app

import (
	"fmt"

	authRepository "github.com/clinsign/clinsign/internal/auth/repository"
	authService "github.com/clinsign/clinsign/internal/auth/service"
	authUsecase "github.com/clinsign/clinsign/internal/auth/usecase"
)

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (authUsecase.UserRepository, error) {
	var err error
	c.userRepoInit.Do(func() {
		c.userRepo, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// LoginSessionRepository returns the login session repository instance.
func (c *Container) LoginSessionRepository() (authUsecase.LoginSessionRepository, error) {
	var err error
	c.loginSessionRepoInit.Do(func() {
		c.loginSessionRepo, err = c.initLoginSessionRepository()
		if err != nil {
			c.initErrors["loginSessionRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["loginSessionRepo"]; exists {
		return nil, storedErr
	}
	return c.loginSessionRepo, nil
}

// TokenService returns the session token service instance.
func (c *Container) TokenService() (authService.TokenService, error) {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService, nil
}

// AuthUseCase returns the authentication use case instance.
func (c *Container) AuthUseCase() (authUsecase.AuthUseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// initUserRepository creates the user repository instance.
func (c *Container) initUserRepository() (authUsecase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initLoginSessionRepository creates the login session repository instance.
func (c *Container) initLoginSessionRepository() (authUsecase.LoginSessionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for login session repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLLoginSessionRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLLoginSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuthUseCase creates the authentication use case with all its dependencies.
func (c *Container) initAuthUseCase() (authUsecase.AuthUseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for auth use case: %w", err)
	}

	loginSessionRepo, err := c.LoginSessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get login session repository for auth use case: %w", err)
	}

	return authUsecase.NewAuthUseCase(userRepo, loginSessionRepo), nil
}
