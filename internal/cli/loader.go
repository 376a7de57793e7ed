package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/jk/internal/compiler"
	"github.com/roach88/jk/internal/queryir"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	Pipelines []queryir.Pipeline
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// Lookup returns the named pipeline.
func (r *LoadResult) Lookup(name string) (queryir.Pipeline, bool) {
	byName, _ := compiler.Index(r.Pipelines)
	p, ok := byName[name]
	return p, ok
}

// Names returns the pipeline names in sorted order.
func (r *LoadResult) Names() []string {
	_, names := compiler.Index(r.Pipelines)
	return names
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line, or 0 without a position.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadSpecs loads and compiles the CUE pipeline specs in a directory.
// A nil result means the directory could not be loaded at all. Otherwise
// the result holds every pipeline that compiled, and the errors list the
// ones that did not: only the first with LoadModeFailFast, all of them
// with LoadModeCollectAll.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, err := compiler.BuildDir(dir)
	if err != nil {
		loadErr := convertCompileError(err)
		loadErr.Code = ErrCodeBuildFailed
		return nil, []error{loadErr}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	pipelines, compileErrs := compiler.CompileAll(value, mode == LoadModeFailFast)
	result.Pipelines = pipelines

	errs := make([]error, 0, len(compileErrs))
	for _, err := range compileErrs {
		errs = append(errs, convertCompileError(err))
	}

	if len(result.Pipelines) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no pipelines found in specs"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		// Keep the "pipeline.<name>: " context added by CompileAll, but
		// leave the position to LoadError.
		context := strings.TrimSuffix(err.Error(), compileErr.Error())
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: context + compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// asLoadError returns err as a *LoadError, wrapping foreign errors as
// generic ones.
func asLoadError(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeScanError        = "E002" // Directory scan error
	ErrCodeNoFiles          = "E003" // No CUE files found
	ErrCodeLoadFailed       = "E004" // Input could not be read
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeBuildFailed      = "E006" // CUE build failed
	ErrCodeWriteFailed      = "E007" // File write error
	ErrCodePipelineNotFound = "E008" // Named pipeline not declared
	ErrCodeInvalidInput     = "E009" // Input items could not be decoded
	ErrCodeInvalidFlags     = "E010" // Flag combination rejected
	ErrCodeRequestFailed    = "E011" // HTTP request could not be sent

	// Pipeline validation errors
	ErrCodeInvalidSteps   = "E101" // Missing or empty steps list
	ErrCodeInvalidStep    = "E102" // Step with zero or several operations
	ErrCodeInvalidFilter  = "E103" // Unparseable where/first filter
	ErrCodeInvalidCount   = "E104" // Bad skip/take count
	ErrCodeInvalidSelect  = "E105" // Bad select projection
	ErrCodeInvalidOrderBy = "E106" // Bad order_by key
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "steps":
		return ErrCodeInvalidSteps
	case "step", "distinct":
		return ErrCodeInvalidStep
	case "where", "first":
		return ErrCodeInvalidFilter
	case "skip", "take":
		return ErrCodeInvalidCount
	case "select":
		return ErrCodeInvalidSelect
	case "order_by", "descending":
		return ErrCodeInvalidOrderBy
	default:
		return ErrCodeGeneric
	}
}
