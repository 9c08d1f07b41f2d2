package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopCodecHooks{}
	c.OnEncode("Model", 3, 1, time.Millisecond, nil)
	c.OnDecode("Model", 3, 1, time.Millisecond, errors.New("boom"))

	s := NoopStoreHooks{}
	s.OnCacheHit(ctx, "document")
	s.OnCacheMiss(ctx, "document")
	s.OnCacheSet(ctx, "document", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/v1/documents/{id}")
	h.OnResponse(ctx, "GET", "/v1/documents/{id}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Codec().(NoopCodecHooks); !ok {
		t.Error("Codec() should return NoopCodecHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customCodec := &testCodecHooks{}
	SetCodecHooks(customCodec)
	if Codec() != customCodec {
		t.Error("SetCodecHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Codec().(NoopCodecHooks); !ok {
		t.Error("Reset() should restore NoopCodecHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testCodecHooks{}
	SetCodecHooks(custom)
	SetCodecHooks(nil)

	if Codec() != custom {
		t.Error("SetCodecHooks(nil) should be ignored")
	}
}

// Test implementations
type testCodecHooks struct{ NoopCodecHooks }
type testStoreHooks struct{ NoopStoreHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
