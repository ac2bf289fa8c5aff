package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForDomainCodes(t *testing.T) {
	cases := []struct {
		code     Code
		status   int
		business bool
	}{
		{CodeInvalidAmount, http.StatusBadRequest, true},
		{CodePriceUnavailable, http.StatusUnprocessableEntity, true},
		{CodeAdjustmentOutOfBounds, http.StatusBadRequest, true},
		{CodeInvalidStatusTransition, http.StatusUnprocessableEntity, true},
		{CodeInvalidLiquidity, http.StatusBadGateway, false},
		{CodeInternal, http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if IsBusiness(tc.code) != tc.business {
			t.Fatalf("%s: expected business=%v", tc.code, tc.business)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestAsUnwrapsThroughChain(t *testing.T) {
	inner := New(CodeInvalidStatusTransition, "cannot approve from draft")
	wrapped := fmt.Errorf("service: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInvalidStatusTransition {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestWithDetailsRoundTrip(t *testing.T) {
	err := New(CodeAdjustmentOutOfBounds, "out of bounds").
		WithDetails(map[string]any{"requested": "15", "allowed": "10"})
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatal("expected details map")
	}
	if details["requested"] != "15" {
		t.Fatalf("unexpected details: %v", details)
	}
}
