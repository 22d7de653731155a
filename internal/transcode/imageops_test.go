package transcode

import (
	"image"
	"testing"
)

func TestComputeIconGeometry(t *testing.T) {
	tests := []struct {
		name         string
		width        int
		height       int
		expectNoop   bool
		expectedCrop image.Rectangle
		expectedEdge int
	}{
		{name: "small square is noop", width: 100, height: 100, expectNoop: true},
		{name: "max square is noop", width: 256, height: 256, expectNoop: true},
		{
			name: "wide source crops centered on long axis",
			width: 1024, height: 512,
			expectedCrop: image.Rect(256, 0, 768, 512),
			expectedEdge: 256,
		},
		{
			name: "tall source crops centered vertically",
			width: 512, height: 1024,
			expectedCrop: image.Rect(0, 256, 512, 768),
			expectedEdge: 256,
		},
		{
			name: "large square still resizes",
			width: 512, height: 512,
			expectedCrop: image.Rect(0, 0, 512, 512),
			expectedEdge: 256,
		},
		{
			name: "tiny source clamps to minimum edge",
			width: 20, height: 10,
			expectedCrop: image.Rect(5, 0, 15, 10),
			expectedEdge: 16,
		},
		{
			name: "edge rounds to nearest multiple of sixteen",
			width: 150, height: 100,
			expectedCrop: image.Rect(25, 0, 125, 100),
			expectedEdge: 96,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			geometry := computeIconGeometry(test.width, test.height)
			if geometry.noop != test.expectNoop {
				t.Fatalf("noop = %v, want %v", geometry.noop, test.expectNoop)
			}
			if test.expectNoop {
				return
			}
			if geometry.crop != test.expectedCrop {
				t.Fatalf("crop = %v, want %v", geometry.crop, test.expectedCrop)
			}
			if geometry.edge != test.expectedEdge {
				t.Fatalf("edge = %d, want %d", geometry.edge, test.expectedEdge)
			}
			if geometry.edge%iconEdgeMultiple != 0 {
				t.Fatalf("edge %d not a multiple of %d", geometry.edge, iconEdgeMultiple)
			}
			if geometry.edge < minIconEdge || geometry.edge > maxIconEdge {
				t.Fatalf("edge %d outside [%d, %d]", geometry.edge, minIconEdge, maxIconEdge)
			}
		})
	}
}

func TestCropAndResizeProducesRequestedEdge(t *testing.T) {
	source := image.NewRGBA(image.Rect(0, 0, 1024, 512))
	geometry := computeIconGeometry(1024, 512)
	output := cropAndResize(source, geometry)
	if output.Bounds().Dx() != 256 || output.Bounds().Dy() != 256 {
		t.Fatalf("output bounds %v, want 256x256", output.Bounds())
	}
}
