package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"tokensum/src/analysis"
	"tokensum/src/args"
	"tokensum/src/database"
	"tokensum/src/mapper"
)

// AnalyzeResult is what a token_sum field makes of a text
type AnalyzeResult struct {
	Field    string   `json:"field"`
	Analyzer string   `json:"analyzer"`
	Tokens   []string `json:"tokens"`
	Sum      int32    `json:"sum"`
	// Set when a token is not a base-10 int32 and Sum is the -1 sentinel
	FormatError string `json:"format_error,omitempty"`
}

func analyzeText(ctx context.Context, analyzeArgs *args.AnalyzeArgs, db database.DBAdapter) (*AnalyzeResult, error) {
	_, mapping, err := openMapping(ctx, analyzeArgs.Name, db)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping: %w", err)
	}

	f, ok := mapping.Lookup(analyzeArgs.Field)
	if !ok {
		return nil, fmt.Errorf("field [%s] is not mapped in index '%s'", analyzeArgs.Field, analyzeArgs.Name)
	}
	field, ok := f.(*mapper.TokenSumField)
	if !ok {
		return nil, fmt.Errorf("field [%s] is of type [%s], not [%s]", analyzeArgs.Field, f.ContentType(), mapper.TokenSumContentType)
	}

	tokens, err := analysis.Terms(field.Analyzer(), field.Name(), analyzeArgs.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}
	sum, err := mapper.CalculateSum(field.Analyzer(), field.Name(), analyzeArgs.Text)
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{
		Field:    field.Name(),
		Analyzer: field.AnalyzerName(),
		Tokens:   tokens,
		Sum:      sum.Int32(),
	}
	if !sum.Valid() {
		result.FormatError = sum.FormatErr.Error()
	}
	return result, nil
}

// RunAnalyze executes the analyze command
func RunAnalyze(ctx context.Context, analyzeArgs *args.AnalyzeArgs, db database.DBAdapter) error {
	result, err := analyzeText(ctx, analyzeArgs, db)
	if err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analyze result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
