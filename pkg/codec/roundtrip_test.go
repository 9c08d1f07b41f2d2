package codec

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/typegraph/pkg/observability"
	"github.com/matzehuels/typegraph/pkg/registry"
)

func TestRoundTripSharing(t *testing.T) {
	c := New(newRegistry(t, reg[Model](), reg[OtherModel]()))

	shared := &Model{Name: "shared"}
	in := []any{
		&OtherModel{Model: shared},
		shared,
		&Model{Name: "x", Submodel: shared},
	}

	text, err := c.Serialize(in)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	got, err := c.Deserialize(text)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	out := got.([]any)
	first := out[0].(*OtherModel).Model
	if out[1] != any(first) || out[2].(*Model).Submodel != first {
		t.Error("shared model was duplicated")
	}

	again, err := c.Serialize(out)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if again != text {
		t.Errorf("re-encoding changed the text:\n got  %s\n want %s", again, text)
	}
}

func TestRoundTripCycle(t *testing.T) {
	c := New(newRegistry(t, reg[A](), reg[B](), reg[C](), reg[D]()))

	a := &A{B: &B{C: &C{}}}
	a.B.C.A = a
	a.B.C.D = &D{B: a.B}

	var out A
	text, err := c.Serialize(a)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if err := c.DeserializeInto(text, &out); err != nil {
		t.Fatalf("DeserializeInto() error: %v", err)
	}
	if out.B.C.A != &out || out.B.C.D.B != out.B {
		t.Error("cycle topology not preserved")
	}
}

func TestRoundTripFieldsAndNumbers(t *testing.T) {
	c := New(newRegistry(t, reg[Document](), reg[Numbers]()))

	doc := &Document{Base: Base{ID: 3}, Title: "hello", Draft: true}
	var gotDoc Document
	text, err := c.Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if err := c.DeserializeInto(text, &gotDoc); err != nil {
		t.Fatalf("DeserializeInto() error: %v", err)
	}
	if gotDoc.ID != 3 || gotDoc.Title != "hello" || !gotDoc.Draft {
		t.Errorf("Document = %+v", gotDoc)
	}

	n := &Numbers{I8: -128, I64: -1 << 62, U8: 7, U64: 1 << 63, F32: 1.5, F64: 0.1 + 0.2, Ratio: ptr(1e-9)}
	var gotNum Numbers
	text, err = c.Serialize(n)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if err := c.DeserializeInto(text, &gotNum); err != nil {
		t.Fatalf("DeserializeInto() error: %v", err)
	}
	if diff := cmp.Diff(*n, gotNum); diff != "" {
		t.Errorf("Numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentUse(t *testing.T) {
	c := New(newRegistry(t, reg[Model](), reg[OtherModel]()))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := &Model{Name: "foobar"}
			text, err := c.Serialize([]any{&OtherModel{Model: m}, m})
			if err != nil {
				errs <- err
				return
			}
			if text != forwardRef {
				errs <- &mismatchError{text}
				return
			}
			if _, err := c.Deserialize(text); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

type mismatchError struct{ text string }

func (e *mismatchError) Error() string { return "unexpected text " + e.text }

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	c := New(newRegistry(t, reg[Model]()), WithLogger(logger))

	if _, err := c.Serialize(&Model{Name: "foobar"}); err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if _, err := c.Deserialize(`{"__type":"Nope","__value":{}}`); err == nil {
		t.Fatal("Deserialize() succeeded for an unknown type")
	}

	out := buf.String()
	for _, want := range []string{"encoded graph", "unknown record type", "registered=", "decode failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type recordingHooks struct {
	mu     sync.Mutex
	events []string
	counts [][2]int
}

func (h *recordingHooks) OnEncode(root string, records, refs int, _ time.Duration, err error) {
	h.record("encode "+root, records, refs, err)
}

func (h *recordingHooks) OnDecode(root string, records, refs int, _ time.Duration, err error) {
	h.record("decode "+root, records, refs, err)
}

func (h *recordingHooks) record(event string, records, refs int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		event += " failed"
	}
	h.events = append(h.events, event)
	h.counts = append(h.counts, [2]int{records, refs})
}

func TestCodecHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCodecHooks(hooks)
	defer observability.Reset()

	c := New(newRegistry(t, reg[Model](), reg[OtherModel]()))
	m := &Model{Name: "foobar"}
	if _, err := c.Serialize([]any{&OtherModel{Model: m}, m}); err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if _, err := c.Deserialize(forwardRef); err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}

	wantEvents := []string{"encode slice", "decode Array"}
	if diff := cmp.Diff(wantEvents, hooks.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	wantCounts := [][2]int{{2, 1}, {2, 1}}
	if diff := cmp.Diff(wantCounts, hooks.counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryAccessor(t *testing.T) {
	r := registry.New()
	if New(r).Registry() != r {
		t.Error("Registry() does not return the injected registry")
	}
}
