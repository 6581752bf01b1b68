package stream

import (
	"testing"
	"time"

	"github.com/apptik-go/jus"
	"github.com/apptik-go/jus/pkg/cache"
)

type fakeNetwork struct {
	resp *jus.NetworkResponse
	err  error
}

func (n *fakeNetwork) PerformRequest(r jus.Request) (*jus.NetworkResponse, error) {
	if n.err != nil {
		return nil, n.err
	}
	return n.resp, nil
}

func newTestQueue(t *testing.T, net jus.Network) *jus.RequestQueue {
	t.Helper()
	c := cache.NewDiskCache(t.TempDir(), 0, 0)
	q := jus.New(c, net, nil, 1)
	if err := q.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(q.Stop)
	return q
}

func TestSubmit_DeliversSuccessOnChannel(t *testing.T) {
	net := &fakeNetwork{resp: &jus.NetworkResponse{StatusCode: 200, Data: []byte("hello")}}
	q := newTestQueue(t, net)

	ch := Submit(q, "POST", "http://x/a", func(resp *jus.NetworkResponse) (string, error) {
		return string(resp.Data), nil
	}, func(r *jus.TypedRequest[string]) {
		r.SetShouldCache(false)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Value != "hello" {
			t.Errorf("Value = %q, want hello", res.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestSubmit_DeliversErrorOnChannel(t *testing.T) {
	net := &fakeNetwork{err: &jus.TimeoutSignal{}}
	q := newTestQueue(t, net)

	ch := Submit(q, "POST", "http://x/b", func(resp *jus.NetworkResponse) (string, error) {
		return "", nil
	}, func(r *jus.TypedRequest[string]) {
		r.SetShouldCache(false)
	})

	select {
	case res := <-ch:
		if res.Err == nil {
			t.Fatal("expected an error result")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}
