package internal

import (
	"math"
	"testing"
)

func TestWidthI(t *testing.T) {
	cases := []struct {
		v    int64
		want BitWidth
	}{
		{0, Width8},
		{127, Width8},
		{-128, Width8},
		{128, Width16},
		{-129, Width16},
		{math.MaxInt16, Width16},
		{math.MaxInt16 + 1, Width32},
		{math.MinInt32, Width32},
		{math.MaxInt32 + 1, Width64},
		{1000000000000, Width64},
		{math.MinInt64, Width64},
	}
	for _, c := range cases {
		if got := WidthI(c.v); got != c.want {
			t.Errorf("WidthI(%d)=%v want %v", c.v, got, c.want)
		}
	}
}

func TestWidthU(t *testing.T) {
	cases := []struct {
		v    uint64
		want BitWidth
	}{
		{0, Width8},
		{255, Width8},
		{256, Width16},
		{65535, Width16},
		{65536, Width32},
		{4294967295, Width32},
		{4294967296, Width64},
		{math.MaxUint64, Width64},
	}
	for _, c := range cases {
		if got := WidthU(c.v); got != c.want {
			t.Errorf("WidthU(%d)=%v want %v", c.v, got, c.want)
		}
	}
}

func TestWidthF(t *testing.T) {
	cases := []struct {
		v    float64
		want BitWidth
	}{
		{0, Width32},
		{1.5, Width32},
		{-2.25, Width32},
		{math.Inf(1), Width32},
		{0.1, Width64},
		{math.MaxFloat64, Width64},
		{math.NaN(), Width64},
	}
	for _, c := range cases {
		if got := WidthF(c.v); got != c.want {
			t.Errorf("WidthF(%v)=%v want %v", c.v, got, c.want)
		}
	}
}

func TestByteWidth(t *testing.T) {
	for w, bw := range map[BitWidth]int{Width8: 1, Width16: 2, Width32: 4, Width64: 8} {
		if got := w.ByteWidth(); got != bw {
			t.Errorf("%v.ByteWidth()=%d want %d", w, got, bw)
		}
		if got := FromByteWidth(bw); got != w {
			t.Errorf("FromByteWidth(%d)=%v want %v", bw, got, w)
		}
	}
	if got := FromByteWidth(3); got != Width64 {
		t.Errorf("FromByteWidth(3)=%v want 64", got)
	}
}

func TestPaddingFor(t *testing.T) {
	cases := []struct{ off, bw, want int }{
		{0, 8, 0},
		{1, 1, 0},
		{1, 2, 1},
		{1, 4, 3},
		{5, 8, 3},
		{8, 8, 0},
		{9, 4, 3},
		{14, 2, 0},
	}
	for _, c := range cases {
		if got := PaddingFor(c.off, c.bw); got != c.want {
			t.Errorf("PaddingFor(%d,%d)=%d want %d", c.off, c.bw, got, c.want)
		}
	}
}
