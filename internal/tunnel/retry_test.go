package tunnel

import "testing"

func TestRetryHost(t *testing.T) {
	if got := retryHost("example.com", "10.0.0.1"); got != "10.0.0.1" {
		t.Errorf("retryHost with PROXY_IP = %q, want 10.0.0.1", got)
	}
	if got := retryHost("example.com", ""); got != "example.com" {
		t.Errorf("retryHost with no PROXY_IP = %q, want example.com", got)
	}
}
