package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// WhopClient validates premium license keys against the Whop membership API.
// Validation results are cached briefly so a burst of premium requests does
// not hammer the API with the same key.
type WhopClient struct {
	api     *fetch.Client
	apiKey  string
	BaseURL string
}

func NewWhopClient(api *fetch.Client, apiKey string) *WhopClient {
	return &WhopClient{api: api, apiKey: apiKey, BaseURL: "https://api.whop.com"}
}

func (c *WhopClient) Configured() bool { return c.apiKey != "" }

func (c *WhopClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

type whopMemberships struct {
	Data []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Valid  bool   `json:"valid"`
	} `json:"data"`
}

// ValidateLicense reports whether the license key maps to an active
// membership. An unconfigured client fails closed.
func (c *WhopClient) ValidateLicense(ctx context.Context, licenseKey string) (bool, error) {
	if !c.Configured() {
		return false, models.ProviderError(registry.ProviderWhop, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("WHOP_API_KEY not set"))
	}
	licenseKey = strings.TrimSpace(licenseKey)
	if licenseKey == "" {
		return false, nil
	}

	u := fmt.Sprintf("%s/api/v2/memberships?license_key=%s", c.BaseURL, url.QueryEscape(licenseKey))
	var raw whopMemberships
	if err := c.api.GetJSON(ctx, registry.ProviderWhop, u, c.headers(), cache.TTLAuth, &raw); err != nil {
		return false, err
	}

	for _, m := range raw.Data {
		if m.Valid || strings.EqualFold(m.Status, "active") || strings.EqualFold(m.Status, "completed") {
			return true, nil
		}
	}
	return false, nil
}
