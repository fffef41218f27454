package trim

import (
	"fmt"
	"image"
	"testing"
)

func BenchmarkTrim(b *testing.B) {
	sizes := []struct {
		name string
		w, h int
	}{
		{"inline", 300, 60},
		{"display", 1800, 240},
	}

	for _, s := range sizes {
		in := makePNG(b, s.w, s.h, white, black, image.Rect(s.w/4, s.h/4, 3*s.w/4, 3*s.h/4))
		for _, stride := range []int{1, DefaultStride} {
			b.Run(fmt.Sprintf("%s/stride%d", s.name, stride), func(b *testing.B) {
				b.ReportAllocs()
				for b.Loop() {
					if _, err := Trim(in, white, WithStride(stride)); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
