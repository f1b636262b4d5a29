package active

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/pyneda/sukyan-fileupload/pkg/fileupload"
	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
	"github.com/pyneda/sukyan-fileupload/pkg/scan"
)

// FileUploadAudit runs the file upload vectors against a set of upload requests.
// Vectors run one after the other for a given request, requests run in parallel.
type FileUploadAudit struct {
	Options ActiveModuleOptions
	// Targets are the observed multipart upload requests
	Targets []*http_utils.Message
	Vectors []fileupload.AttackVector
	Locator fileupload.LocatorConfig
	// BaseFileName prefixes every uploaded file name of the run
	BaseFileName string
}

type fileUploadTargetResult struct {
	index    int
	findings []Finding
	err      error
}

// Run executes the audit and returns the findings ordered by target then vector.
// Configuration errors of every target are joined in the returned error.
func (a *FileUploadAudit) Run() ([]Finding, error) {
	ctx := a.Options.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if a.Options.Sender == nil {
		return nil, errors.New("file upload audit needs a sender")
	}

	concurrency := a.Options.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	p := pool.NewWithResults[fileUploadTargetResult]().WithMaxGoroutines(concurrency)
	for i, target := range a.Targets {
		index, target := i, target
		p.Go(func() fileUploadTargetResult {
			findings, err := a.auditTarget(ctx, target)
			return fileUploadTargetResult{index: index, findings: findings, err: err}
		})
	}
	results := p.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].index < results[j].index
	})
	var findings []Finding
	var errs []error
	for _, r := range results {
		findings = append(findings, r.findings...)
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return findings, errors.Join(errs...)
}

func (a *FileUploadAudit) auditTarget(ctx context.Context, target *http_utils.Message) ([]Finding, error) {
	if target == nil || target.Request == nil {
		return nil, nil
	}
	auditLog := log.With().Str("audit", "file-upload").Str("url", target.Request.URL.String()).Logger()

	if !scan.IsMultipartUpload(target) {
		auditLog.Warn().Msg("Skipping request, it does not upload any file")
		return nil, nil
	}

	executor := fileupload.NewExecutor(fileupload.ExecutorOptions{
		Sender:       a.Options.Sender,
		Variant:      scan.NewMultipartVariant(),
		Config:       a.Locator,
		Original:     target,
		BaseFileName: a.BaseFileName,
	})

	auditLog.Info().Int("vectors", len(a.Vectors)).Msg("Starting file upload audit")
	var findings []Finding
	for _, vector := range a.Vectors {
		select {
		case <-ctx.Done():
			auditLog.Info().Msg("File upload audit cancelled")
			return findings, nil
		default:
		}

		result, err := executor.Run(ctx, vector)
		if err != nil {
			switch {
			case fileupload.IsConfigurationError(err):
				auditLog.Error().Err(err).Str("vector", vector.Name).Msg("File upload audit misconfigured, skipping remaining vectors")
				return findings, err
			case ctx.Err() != nil:
				// Per request timeouts also wrap context errors, only the audit context stops the run
				auditLog.Info().Str("vector", vector.Name).Msg("File upload audit cancelled")
				return findings, nil
			default:
				auditLog.Warn().Err(err).Str("vector", vector.Name).Msg("File upload vector failed")
				continue
			}
		}
		if result.Vulnerable {
			finding := NewFinding(vector, result, target)
			auditLog.Warn().Str("vector", vector.Name).Str("retrieval_url", finding.RetrievalURL).Str("severity", finding.Severity).Msg("File upload vulnerability found")
			findings = append(findings, finding)
		}
	}
	auditLog.Info().Int("findings", len(findings)).Msg("File upload audit finished")
	return findings, nil
}
