// Package logging constructs the single zap logger every other package
// threads through as a field rather than reaching for a package-level
// global, so tests can substitute a no-op logger freely.
package logging

import "go.uber.org/zap"

// New builds a sugared logger suited to an interactive session: development
// mode (human-readable console encoding, stack traces on Warn+) when debug
// is true, production mode (JSON, Info and above) otherwise.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything, for tests and callers that
// don't care about diagnostics.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
