package testhelper

import (
	"math"
	"strings"
	"testing"
)

func TestFloatsEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected float64
		actual   float64
		opts     CompareOptions
		want     bool
	}{
		{"exact", 0.1, 0.1, DefaultOptions(), true},
		{"relative within", 1.0, 1.0 + 1e-10, DefaultOptions(), true},
		{"relative outside", 1.0, 1.001, DefaultOptions(), false},
		{"relative zero", 0, 1e-10, DefaultOptions(), true},
		{"absolute within", 1.0, 1.05, OrderOptions(), true},
		{"absolute outside", 2.0, 1.8, OrderOptions(), false},
		{"ulp within", 0.1, math.Nextafter(0.1, 1), CompareOptions{FloatTolerance: 1, ToleranceMode: "ulp"}, true},
		{"ulp outside", 0.1, 0.1000001, CompareOptions{FloatTolerance: 1, ToleranceMode: "ulp"}, false},
		{"nan equals nan", math.NaN(), math.NaN(), DefaultOptions(), true},
		{"nan not equal", math.NaN(), math.NaN(), OrderOptions(), false},
		{"nan vs number", math.NaN(), 1, DefaultOptions(), false},
		{"same infinity", math.Inf(1), math.Inf(1), DefaultOptions(), true},
		{"opposite infinity", math.Inf(1), math.Inf(-1), DefaultOptions(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FloatsEqual(tt.expected, tt.actual, tt.opts); got != tt.want {
				t.Errorf("FloatsEqual(%v, %v) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestValidateOptions(t *testing.T) {
	if err := ValidateOptions(DefaultOptions()); err != nil {
		t.Errorf("ValidateOptions(default) = %v", err)
	}
	if err := ValidateOptions(CompareOptions{ToleranceMode: "fuzzy"}); err == nil {
		t.Error("ValidateOptions(fuzzy) = nil")
	}
	if err := ValidateOptions(CompareOptions{FloatTolerance: -1}); err == nil {
		t.Error("ValidateOptions(negative tolerance) = nil")
	}
}

func TestCompareColumn(t *testing.T) {
	rf, err := ParseResults("final.csv", finalFile)
	if err != nil {
		t.Fatal(err)
	}

	if ok, diff := CompareColumn(rf, "error A", []float64{0.2, 0.1, 0.05}, DefaultOptions()); !ok {
		t.Errorf("CompareColumn() mismatch:\n%s", diff)
	}

	ok, diff := CompareColumn(rf, "error A", []float64{0.2, 0.2, 0.05}, DefaultOptions())
	if ok || !strings.Contains(diff, "error A[1]") {
		t.Errorf("CompareColumn() = %v, %q; want mismatch at row 1", ok, diff)
	}

	ok, diff = CompareColumn(rf, "error A", []float64{0.2}, DefaultOptions())
	if ok || !strings.Contains(diff, "length mismatch") {
		t.Errorf("CompareColumn() = %v, %q; want length mismatch", ok, diff)
	}
}

func TestCheckOrder(t *testing.T) {
	rf, err := ParseResults("final.csv", finalFile)
	if err != nil {
		t.Fatal(err)
	}

	if err := CheckOrder(rf, "error A", 1, OrderOptions()); err != nil {
		t.Errorf("CheckOrder(error A, 1) = %v", err)
	}
	if err := CheckOrder(rf, "error B", 2, OrderOptions()); err != nil {
		t.Errorf("CheckOrder(error B, 2) = %v", err)
	}

	err = CheckOrder(rf, "error A", 2, OrderOptions())
	if err == nil || !strings.Contains(err.Error(), "order 1.000, want 2.000") {
		t.Errorf("CheckOrder(error A, 2) = %v, want order mismatch", err)
	}

	if err := CheckOrder(rf, "error C", 1, OrderOptions()); err == nil {
		t.Error("CheckOrder(unknown column) = nil, want error")
	}
	if err := CheckOrder(rf, "error A", 1, CompareOptions{ToleranceMode: "fuzzy"}); err == nil {
		t.Error("CheckOrder(invalid options) = nil, want error")
	}
}
