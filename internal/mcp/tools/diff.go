package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeschema-mcp/internal/connector"
	"github.com/usestring/storeschema-mcp/pkg/inference"
)

// DiffInput is the input for storeschema_diff.
type DiffInput struct {
	Store      string `json:"store" jsonschema:"Store name from storeschema_list_stores"`
	Collection string `json:"collection,omitempty" jsonschema:"Collection name (required for document stores)"`
}

// DiffOutput is the output for storeschema_diff.
type DiffOutput struct {
	BaselinePassID  string          `json:"baseline_pass_id,omitempty"`
	CandidatePassID string          `json:"candidate_pass_id"`
	Diff            *inference.Diff `json:"diff"`
	Hint            string          `json:"hint,omitempty"`
}

// ToolDiff re-runs a pass and compares it with the recorded snapshot. The
// new pass becomes the snapshot. Without a snapshot the pass only records
// the baseline.
func ToolDiff(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DiffInput) (*sdkmcp.CallToolResult, DiffOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DiffInput) (*sdkmcp.CallToolResult, DiffOutput, error) {
		if input.Store == "" {
			return nil, DiffOutput{}, ErrInvalidInput("store is required")
		}
		cfg, ok := d.Stores.Config(input.Store)
		if !ok {
			return nil, DiffOutput{}, ErrNotFound("store", input.Store)
		}

		if connector.LayoutOf(cfg.Kind) == connector.LayoutDocuments {
			if input.Collection == "" {
				return nil, DiffOutput{}, ErrInvalidInput("collection is required for document stores")
			}
			baseline, hadBaseline := d.Results.Documents(input.Store, input.Collection)
			candidate, err := d.InferDocuments(ctx, input.Store, input.Collection)
			if err != nil {
				return nil, DiffOutput{}, err
			}
			if !hadBaseline {
				return nil, baselineRecorded(candidate.PassID), nil
			}
			return nil, DiffOutput{
				BaselinePassID:  baseline.PassID,
				CandidatePassID: candidate.PassID,
				Diff:            inference.CompareFields(baseline, candidate),
				Hint:            fmt.Sprintf("Compared against the pass of %s.", baseline.GeneratedAt.Format("2006-01-02 15:04:05Z07:00")),
			}, nil
		}

		// The candidate reuses the snapshot's variant so patterns compare.
		baseline, hadBaseline := d.Results.Keys(input.Store)
		var variant inference.Variant
		if hadBaseline {
			variant = baseline.Variant
		}
		candidate, err := d.InferKeys(ctx, input.Store, variant, 0)
		if err != nil {
			return nil, DiffOutput{}, err
		}
		if !hadBaseline {
			return nil, baselineRecorded(candidate.PassID), nil
		}
		return nil, DiffOutput{
			BaselinePassID:  baseline.PassID,
			CandidatePassID: candidate.PassID,
			Diff:            inference.CompareKeys(baseline, candidate),
			Hint:            fmt.Sprintf("Compared against the pass of %s.", baseline.GeneratedAt.Format("2006-01-02 15:04:05Z07:00")),
		}, nil
	}
}

func baselineRecorded(passID string) DiffOutput {
	return DiffOutput{
		CandidatePassID: passID,
		Hint:            "No earlier snapshot; this pass was recorded as the baseline. Run storeschema_diff again later to compare.",
	}
}
