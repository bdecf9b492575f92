package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/finboard/internal/errs"
)

// Secrets path
// projects/{project}/secrets/{name}/versions/latest

// secretAccessor is the subset of *secretmanager.Client used to read keys.
type secretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

type providerSecretsStore struct {
	client    secretAccessor
	projectID string
}

func NewProviderSecretsStore(client secretAccessor, projectID string) *providerSecretsStore {
	return &providerSecretsStore{client: client, projectID: projectID}
}

func (s *providerSecretsStore) versionName(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)
}

// GetAPIKey returns the latest version of the named secret.
func (s *providerSecretsStore) GetAPIKey(ctx context.Context, name string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.versionName(name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", errs.NewNotFoundError(fmt.Sprintf("secret %s not found", name))
		}
		return "", errs.NewExternalServiceError("secretmanager", "failed to access secret "+name, false, err)
	}
	if res.GetPayload() == nil {
		return "", nil
	}
	return string(res.GetPayload().GetData()), nil
}
