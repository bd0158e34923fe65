package pricing

import "testing"

func TestFormatPriceEchoesInputPrecision(t *testing.T) {
	cases := []struct {
		price     float64
		precision int
		want      string
	}{
		{3412.5, 0, "3412.5"},
		{3450, 0, "3450"},
		{0.08525, 3, "0.08525"},
		{1.25, 2, "1.25"},
		{1.2, 2, "1.2"},
	}
	for _, tc := range cases {
		if got := FormatPrice(tc.price, tc.precision); got != tc.want {
			t.Fatalf("FormatPrice(%v, %d) = %q, want %q", tc.price, tc.precision, got, tc.want)
		}
	}
}

func TestFormatPriceTiers(t *testing.T) {
	cases := []struct {
		price float64
		want  string
	}{
		{86800, "86800.00"},
		{150.5, "150.50"},
		{3.14159, "3.1416"},
		{0.08525, "0.08525"},
		{0.00001234, "0.00001234"},
		{0.000012, "0.000012"},
	}
	for _, tc := range cases {
		if got := FormatPrice(tc.price, -1); got != tc.want {
			t.Fatalf("FormatPrice(%v, -1) = %q, want %q", tc.price, got, tc.want)
		}
	}
}

func TestInputPrecision(t *testing.T) {
	cases := []struct {
		tokens []string
		want   int
	}{
		{[]string{"3450", "3300"}, 0},
		{[]string{"0.085", "0.0825"}, 4},
		{[]string{"100.5", "99"}, 1},
		{[]string{"", ""}, -1},
		{nil, -1},
	}
	for _, tc := range cases {
		if got := inputPrecision(tc.tokens...); got != tc.want {
			t.Fatalf("inputPrecision(%v) = %d, want %d", tc.tokens, got, tc.want)
		}
	}
}
