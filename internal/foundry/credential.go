// ABOUTME: Chooses the Entra ID credential for the current runtime
// ABOUTME: Managed hosts use DefaultAzureCredential; developer machines use the Azure CLI login

package foundry

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// NewCredential returns DefaultAzureCredential in the cloud and
// AzureCLICredential locally. It satisfies agent.CredentialFactory.
func NewCredential(_ context.Context, cloud bool) (azcore.TokenCredential, error) {
	if cloud {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("creating default azure credential: %w", err)
		}
		return cred, nil
	}

	cred, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure cli credential: %w", err)
	}
	return cred, nil
}
