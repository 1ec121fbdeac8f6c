package probe

import (
	"context"
	"net/http"

	ierrors "github.com/openrecon/openrecon/internal/errors"
	"github.com/openrecon/openrecon/safehttp"
)

// fakeFetcher serves canned results keyed by exact URL. URLs without an
// entry fail like an unreachable host.
type fakeFetcher struct {
	responses map[string]*safehttp.Result
	errs      map[string]error
	requested []string
}

func (f *fakeFetcher) fetch(url string) (*safehttp.Result, error) {
	f.requested = append(f.requested, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if res, ok := f.responses[url]; ok {
		return res, nil
	}
	return nil, ierrors.Newf("no route to %s", url)
}

func (f *fakeFetcher) Get(_ context.Context, url string, _ map[string]string) (*safehttp.Result, error) {
	return f.fetch(url)
}

func (f *fakeFetcher) Head(_ context.Context, url string, _ map[string]string) (*safehttp.Result, error) {
	return f.fetch(url)
}

func htmlResult(body string, headers map[string]string) *safehttp.Result {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &safehttp.Result{
		StatusCode: http.StatusOK,
		Headers:    h,
		Body:       []byte(body),
	}
}

// fakeResolver serves canned lookups keyed by hostname.
type fakeResolver struct {
	hosts map[string][]string
}

func (r *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if ips, ok := r.hosts[host]; ok {
		return ips, nil
	}
	return nil, ierrors.Newf("no such host %s", host)
}
