package jus

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/apptik-go/jus/pkg/auth"
	"github.com/apptik-go/jus/pkg/cache"
	"github.com/apptik-go/jus/pkg/retry"
)

func TestBasicNetwork_SuccessReturnsResponse(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{{resp: &NetworkResponse{StatusCode: 200, Data: []byte("ok")}}}}
	n := NewBasicNetwork(stack, nil, nil)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})

	resp, err := n.PerformRequest(r)
	if err != nil {
		t.Fatalf("PerformRequest: %v", err)
	}
	if string(resp.Data) != "ok" {
		t.Errorf("Data = %q", resp.Data)
	}
}

func TestBasicNetwork_ServerErrorRetriesThenSucceeds(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{
		{resp: &NetworkResponse{StatusCode: 503}},
		{resp: &NetworkResponse{StatusCode: 200, Data: []byte("recovered")}},
	}}
	n := NewBasicNetwork(stack, nil, nil)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})
	r.SetRetryPolicy(retry.New(retry.DefaultTimeout, 2, retry.DefaultBackoffMultiplier))

	resp, err := n.PerformRequest(r)
	if err != nil {
		t.Fatalf("PerformRequest: %v", err)
	}
	if string(resp.Data) != "recovered" {
		t.Errorf("Data = %q", resp.Data)
	}
	if stack.callCount() != 2 {
		t.Errorf("callCount = %d, want 2", stack.callCount())
	}
}

func TestBasicNetwork_RetryBudgetExhaustedDeliversTimeoutError(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{
		{err: &TimeoutSignal{Err: errors.New("i/o timeout")}},
		{err: &TimeoutSignal{Err: errors.New("i/o timeout")}},
	}}
	n := NewBasicNetwork(stack, nil, nil)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})
	r.SetRetryPolicy(retry.New(retry.DefaultTimeout, 1, retry.DefaultBackoffMultiplier)) // maxNumRetries=1 -> exactly 2 attempts

	_, err := n.PerformRequest(r)
	if !IsKind(err, "timeout") {
		t.Fatalf("err = %v, want a timeout error", err)
	}
	if stack.callCount() != 2 {
		t.Errorf("callCount = %d, want 2 (maxNumRetries+1 attempts)", stack.callCount())
	}
}

func TestBasicNetwork_ForbiddenIsTerminal(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{{resp: &NetworkResponse{StatusCode: 403}}}}
	n := NewBasicNetwork(stack, nil, nil)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})

	_, err := n.PerformRequest(r)
	if !IsKind(err, "forbidden") {
		t.Errorf("err = %v, want forbidden", err)
	}
	if stack.callCount() != 1 {
		t.Errorf("callCount = %d, want 1 (terminal, no retry)", stack.callCount())
	}
}

func TestBasicNetwork_ClientErrorIsTerminal(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{{resp: &NetworkResponse{StatusCode: 422}}}}
	n := NewBasicNetwork(stack, nil, nil)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})

	_, err := n.PerformRequest(r)
	if !IsKind(err, "request") {
		t.Errorf("err = %v, want request", err)
	}
}

func TestBasicNetwork_RequestTimeoutStatusRetries(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{
		{resp: &NetworkResponse{StatusCode: http.StatusRequestTimeout}},
		{resp: &NetworkResponse{StatusCode: 200, Data: []byte("ok")}},
	}}
	n := NewBasicNetwork(stack, nil, nil)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})
	r.SetRetryPolicy(retry.New(retry.DefaultTimeout, 1, retry.DefaultBackoffMultiplier))

	resp, err := n.PerformRequest(r)
	if err != nil {
		t.Fatalf("PerformRequest: %v", err)
	}
	if string(resp.Data) != "ok" {
		t.Errorf("Data = %q", resp.Data)
	}
}

func TestBasicNetwork_AuthRetrySendsNewTokenOnSecondAttempt(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{
		{resp: &NetworkResponse{StatusCode: 401}},
		{resp: &NetworkResponse{StatusCode: 200, Data: []byte("authed")}},
	}}
	tokens := []string{"token-a", "token-b"}
	i := 0
	authenticator := auth.AuthenticatorFunc(func(ctx context.Context) (string, error) {
		tok := tokens[i]
		if i < len(tokens)-1 {
			i++
		}
		return tok, nil
	})
	n := NewBasicNetwork(stack, nil, authenticator)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})
	r.SetRetryPolicy(retry.New(retry.DefaultTimeout, 1, retry.DefaultBackoffMultiplier))

	resp, err := n.PerformRequest(r)
	if err != nil {
		t.Fatalf("PerformRequest: %v", err)
	}
	if string(resp.Data) != "authed" {
		t.Errorf("Data = %q", resp.Data)
	}
	if stack.callCount() != 2 {
		t.Fatalf("callCount = %d, want 2", stack.callCount())
	}
	if stack.calls[1]["Authorization"] != "Bearer token-b" {
		t.Errorf("second attempt Authorization = %q, want Bearer token-b", stack.calls[1]["Authorization"])
	}
}

func TestBasicNetwork_AuthFailureWithoutAuthenticatorIsTerminal(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{{resp: &NetworkResponse{StatusCode: 401}}}}
	n := NewBasicNetwork(stack, nil, nil)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})

	_, err := n.PerformRequest(r)
	if !IsKind(err, "auth-failure") {
		t.Errorf("err = %v, want auth-failure", err)
	}
	if stack.callCount() != 1 {
		t.Errorf("callCount = %d, want 1", stack.callCount())
	}
}

func TestBasicNetwork_NotModifiedMergesEntryHeaders(t *testing.T) {
	stack := &scriptedStack{script: []stackResult{{resp: &NetworkResponse{
		StatusCode: http.StatusNotModified,
		Headers:    cache.Headers{"date": "Mon, 02 Jan 2006 15:04:05 GMT"},
	}}}}
	n := NewBasicNetwork(stack, nil, nil)
	r := NewTypedRequest("GET", "http://x/a", noopDecode, Listener[string]{})
	r.SetCacheEntry(&cache.Entry{
		Data:            []byte("cached-body"),
		ETag:            `W/"v1"`,
		ResponseHeaders: cache.Headers{"etag": `W/"v1"`},
	})

	resp, err := n.PerformRequest(r)
	if err != nil {
		t.Fatalf("PerformRequest: %v", err)
	}
	if string(resp.Data) != "cached-body" {
		t.Errorf("Data = %q, want the cached body to be returned on 304", resp.Data)
	}
	if resp.Headers.Get("etag") != `W/"v1"` {
		t.Error("expected the cached entry's headers to be merged into the 304 response")
	}
	if stack.calls[0]["If-None-Match"] != `W/"v1"` {
		t.Errorf("If-None-Match = %q", stack.calls[0]["If-None-Match"])
	}
}
