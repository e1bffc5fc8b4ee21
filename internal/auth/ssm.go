package auth

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/keithlinneman/yummigo-web/internal/xerrors"
)

// SSMAPI is the subset of *ssm.Client used to read secrets.
type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Secrets names where the admin credentials come from. Literal values win
// over parameters.
type Secrets struct {
	Password      string
	APIKey        string
	PasswordParam string
	APIKeyParam   string
}

// NeedsSSM reports whether any secret has to be fetched.
func (s Secrets) NeedsSSM() bool {
	return (s.Password == "" && s.PasswordParam != "") || (s.APIKey == "" && s.APIKeyParam != "")
}

// Resolve fills empty secrets from their SSM SecureString parameters.
func Resolve(ctx context.Context, client SSMAPI, s Secrets) (password, apiKey string, err error) {
	password, apiKey = s.Password, s.APIKey
	if password == "" && s.PasswordParam != "" {
		if password, err = getSecret(ctx, client, s.PasswordParam); err != nil {
			return "", "", err
		}
	}
	if apiKey == "" && s.APIKeyParam != "" {
		if apiKey, err = getSecret(ctx, client, s.APIKeyParam); err != nil {
			return "", "", err
		}
	}
	return password, apiKey, nil
}

func getSecret(ctx context.Context, client SSMAPI, name string) (string, error) {
	if client == nil {
		return "", xerrors.Newf("ssm client required for parameter %s", name)
	}
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get ssm parameter %s", name)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", xerrors.Newf("ssm parameter %s is empty", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}
