package device

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCapability     = errors.New("device: missing required capability")
	ErrIncompleteFramebuffer = errors.New("device: framebuffer incomplete")
	ErrInvalidTexture        = errors.New("device: invalid texture")
	ErrUniformType           = errors.New("device: uniform type mismatch")
	ErrNoProgram             = errors.New("device: no linked program in use")
	ErrFeedbackLoop          = errors.New("device: texture bound for sampling is also the draw target")
	ErrInvalidValue          = errors.New("device: invalid value")
)

// Stage identifies which part of program construction failed
type Stage string

const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
	StageLink     Stage = "link"
)

// CompileError reports a failed compile or link with the backend log
type CompileError struct {
	Stage  Stage
	Source string
	Log    string
}

func (e *CompileError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("device: %s stage failed for %q: %s", e.Stage, e.Source, e.Log)
	}
	return fmt.Sprintf("device: %s stage failed: %s", e.Stage, e.Log)
}

// IsCompileError reports whether err wraps a CompileError
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
