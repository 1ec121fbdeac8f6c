package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecon/openrecon/safehttp"
)

func TestNetworkFootprintProbe_Run(t *testing.T) {
	body := `[{"name_value": "www.example.com"}, {"name_value": "mail.example.com"}, {"name_value": "ghost.example.com"}]`
	f := &fakeFetcher{responses: map[string]*safehttp.Result{
		"https://crt.sh/?q=%25.example.com&output=json": htmlResult(body, nil),
	}}
	r := &fakeResolver{hosts: map[string][]string{
		"example.com":      {"93.184.216.34"},
		"www.example.com":  {"93.184.216.34"},
		"mail.example.com": {"93.184.216.40"},
		// ghost.example.com does not resolve
	}}

	payload, err := NewNetworkFootprint(f, r).Run(context.Background(), "example.com")
	require.NoError(t, err)

	report := payload.(*FootprintReport)
	assert.Equal(t, "example.com", report.Domain)
	assert.Equal(t, 3, report.Summary.TotalSubdomains)
	assert.Equal(t, 3, report.Summary.ResolvedHosts)
	assert.Equal(t, 2, report.Summary.UniqueIPs)

	assert.Equal(t, []string{"example.com", "www.example.com"}, report.IPToHosts["93.184.216.34"])
	assert.Equal(t, []string{"mail.example.com"}, report.IPToHosts["93.184.216.40"])
}

func TestNetworkFootprintProbe_EnumerationFailureDegrades(t *testing.T) {
	// No subdomain source reachable: the probe still maps the root domain.
	f := &fakeFetcher{}
	r := &fakeResolver{hosts: map[string][]string{
		"example.com": {"93.184.216.34"},
	}}

	payload, err := NewNetworkFootprint(f, r).Run(context.Background(), "example.com")
	require.NoError(t, err)

	report := payload.(*FootprintReport)
	assert.Zero(t, report.Summary.TotalSubdomains)
	assert.Equal(t, 1, report.Summary.ResolvedHosts)
	assert.Equal(t, []string{"example.com"}, report.IPToHosts["93.184.216.34"])
}
