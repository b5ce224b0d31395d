package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/durlin/internal/scenario"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	Path                 string `json:"path"`
	Valid                bool   `json:"valid"`
	Name                 string `json:"name,omitempty"`
	Code                 string `json:"code,omitempty"`
	Error                string `json:"error,omitempty"`
	HasSuspendableActors bool   `json:"has_suspendable_actors"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files against the schema and the construction
invariants: no suspendable actor in init, and no post part when any actor
is suspendable.

Every file is checked; the command fails if any of them is invalid.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		fv := validateFile(path)
		result.Valid = result.Valid && fv.Valid
		result.Files = append(result.Files, fv)
	}

	if formatter.Format == "json" {
		if result.Valid {
			if err := formatter.Success(result); err != nil {
				return err
			}
		} else {
			first := firstInvalid(result.Files)
			if err := formatter.encode(CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: first.Code, Message: first.Error},
			}); err != nil {
				return err
			}
		}
	} else {
		writeValidationText(formatter, result)
	}

	if !result.Valid {
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d of %d file(s)",
			countInvalid(result.Files), len(result.Files)))
	}
	return nil
}

func validateFile(path string) FileValidation {
	fv := FileValidation{Path: path}
	sc, err := scenario.Load(path)
	switch {
	case err == nil:
		fv.Valid = true
		fv.Name = sc.Name
		fv.HasSuspendableActors = scenario.HasSuspendableActors(sc)
	case errors.Is(err, fs.ErrNotExist):
		fv.Code = ErrCodeNotFound
		fv.Error = "file not found"
	default:
		fv.Code = ErrCodeInvalidScenario
		fv.Error = err.Error()
	}
	return fv
}

func writeValidationText(f *OutputFormatter, result ValidationResult) {
	for _, fv := range result.Files {
		if fv.Valid {
			suffix := ""
			if fv.HasSuspendableActors {
				suffix = " (has suspendable actors)"
			}
			fmt.Fprintf(f.Writer, "✓ %s%s\n", fv.Path, suffix)
			continue
		}
		fmt.Fprintf(f.Writer, "✗ %s\n  %s: %s\n", fv.Path, fv.Code, fv.Error)
	}
	if result.Valid {
		fmt.Fprintln(f.Writer, "✓ All scenarios valid")
	}
}

func firstInvalid(files []FileValidation) FileValidation {
	for _, fv := range files {
		if !fv.Valid {
			return fv
		}
	}
	return FileValidation{}
}

func countInvalid(files []FileValidation) int {
	n := 0
	for _, fv := range files {
		if !fv.Valid {
			n++
		}
	}
	return n
}
