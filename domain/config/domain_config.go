package config

import (
	"fmt"
	"time"
)

// DomainConfig holds the configurable business rules for projects and questions
type DomainConfig struct {
	// Project constraints
	DefaultProjectTitle    string
	MaxProjectTitleLength  int
	MaxProjectsPerUser     int
	MaxQuestionsPerProject int

	// Question constraints
	MinQuestionLength int
	MaxQuestionLength int
	MaxTopicLength    int

	// Answer generation
	CompletionTimeout time.Duration
	MaxAnswerLength   int

	// Sharing
	AllowPublicShare bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		DefaultProjectTitle:    "Untitled Project",
		MaxProjectTitleLength:  200,
		MaxProjectsPerUser:     500,
		MaxQuestionsPerProject: 1000,

		MinQuestionLength: 1,
		MaxQuestionLength: 8000,
		MaxTopicLength:    60,

		CompletionTimeout: 90 * time.Second,
		MaxAnswerLength:   200000,

		AllowPublicShare: true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter limits keep single DynamoDB items under the 400KB cap
	config.MaxQuestionsPerProject = 300
	config.MaxAnswerLength = 60000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.CompletionTimeout = 3 * time.Minute
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxProjectTitleLength <= 0 {
		return fmt.Errorf("max project title length must be positive")
	}
	if c.MinQuestionLength < 1 || c.MaxQuestionLength < c.MinQuestionLength {
		return fmt.Errorf("invalid question length bounds %d..%d", c.MinQuestionLength, c.MaxQuestionLength)
	}
	if c.MaxQuestionsPerProject <= 0 {
		return fmt.Errorf("max questions per project must be positive")
	}
	return nil
}
