package fileupload

import (
	"context"
	"errors"
	"fmt"
)

// AttackVector pairs a payload with the files to try and the oracle deciding success
type AttackVector struct {
	Name           string
	Title          string
	Description    string
	Remediation    string
	IssueCode      string
	Severity       Severity
	CWE            int
	Payload        []byte
	FileParameters []FileParameter
	Matcher        ContentMatcher
}

// Execute runs the vector against the executor's upload request and reports whether it fired
func (v AttackVector) Execute(ctx context.Context, executor *Executor) (bool, error) {
	if executor == nil {
		return false, errors.New("nil executor")
	}
	result, err := executor.Run(ctx, v)
	if err != nil {
		return false, err
	}
	return result.Vulnerable, nil
}

func (v AttackVector) Validate() error {
	if v.Name == "" {
		return errors.New("vector name is required")
	}
	if len(v.FileParameters) == 0 {
		return fmt.Errorf("vector %s has no file parameters", v.Name)
	}
	for i, p := range v.FileParameters {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("vector %s file parameter %d: %w", v.Name, i, err)
		}
	}
	if v.Matcher == nil {
		return fmt.Errorf("vector %s has no matcher", v.Name)
	}
	return nil
}
