package patch

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/agentci/agentci/internal/canon"
	"github.com/agentci/agentci/internal/model"
)

// Do is the facade replacement for (*http.Client).Do, covering the
// "network (low)" and "network (high)" categories from §4.4 — callers wrap
// both a bespoke host-based client and a fetch-equivalent helper through
// this one entry point. It emits a net_outbound effect only when the round
// trip completes without a transport error (an HTTP error status still
// counts as a completed request).
func (p *Patcher) Do(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	p.recordRequest(req.URL, req.Method)
	return resp, nil
}

// Get is a convenience facade mirroring http.Get.
func (p *Patcher) Get(client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return p.Do(client, req)
}

// maxHostnameLength is the DNS label-chain limit (RFC 1035 §3.1); a longer
// host can only be garbage or an attempted overflow, so the event is
// dropped rather than recorded.
const maxHostnameLength = 253

func (p *Patcher) recordRequest(u *url.URL, method string) {
	host := canon.CanonicalizeHost(u.Hostname())
	if len(host) > maxHostnameLength {
		return
	}
	etld1 := canon.ETLDPlus1(host)

	data := &model.NetEffectData{
		HostRaw:       host,
		HostETLDPlus1: etld1,
		Method:        normalizeMethod(method),
		Protocol:      u.Scheme,
	}
	if portStr := u.Port(); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			data.Port = &port
		}
	}

	p.emit(model.CategoryNetOutbound, model.EffectPayload{Net: data})
}

func normalizeMethod(m string) string {
	if m == "" {
		return http.MethodGet
	}
	out := make([]byte, len(m))
	for i := 0; i < len(m); i++ {
		c := m[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
