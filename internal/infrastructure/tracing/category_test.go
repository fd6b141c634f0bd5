package tracing

import (
	"strings"
	"testing"

	"github.com/traceshop/backend/internal/shared/id"
)

func TestCategoryString(t *testing.T) {
	cases := map[Category]string{
		CategoryFlow:        "flow",
		CategoryInternal:    "internal",
		CategoryUI:          "ui",
		CategoryAPI:         "api",
		CategoryInteraction: "interaction",
		Category(99):        "unknown",
	}
	for cat, want := range cases {
		if got := cat.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", cat, got, want)
		}
	}
}

func TestCategoryNewKey(t *testing.T) {
	flowKey := CategoryFlow.NewKey()
	if !strings.HasPrefix(flowKey, id.FlowPrefix+"_") {
		t.Errorf("flow key %q should carry the flow prefix", flowKey)
	}
	spanKey := CategoryAPI.NewKey()
	if !strings.HasPrefix(spanKey, id.SpanPrefix+"_") {
		t.Errorf("span key %q should carry the span prefix", spanKey)
	}
	if CategoryFlow.NewKey() == flowKey {
		t.Error("keys must be unique")
	}
}

func TestFlowTypeValid(t *testing.T) {
	for _, f := range []FlowType{FlowShopping, FlowCheckout, FlowOrder} {
		if !f.Valid() {
			t.Errorf("%q should be valid", f)
		}
	}
	if FlowType("refund").Valid() {
		t.Error("unknown flow type should be invalid")
	}
}

func TestFlowTypeSpanName(t *testing.T) {
	if got := FlowCheckout.SpanName(); got != "flow.checkout" {
		t.Errorf("SpanName() = %q, want flow.checkout", got)
	}
}
