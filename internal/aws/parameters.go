package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterAPI is the subset of the SSM client used to read shared settings
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// GetParameterValue reads a (possibly SecureString) SSM parameter
func GetParameterValue(ctx context.Context, api ParameterAPI, name string) (string, error) {
	output, err := api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get SSM parameter %s: %w", name, classifyError(err))
	}
	if output.Parameter == nil {
		return "", fmt.Errorf("SSM parameter %s has no value", name)
	}

	return deref(output.Parameter.Value), nil
}
