package graph

import "testing"

func TestShapeStrides(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  []uint64
	}{
		{"scalar", Shape{}, []uint64{}},
		{"vector", Shape{5}, []uint64{1}},
		{"matrix", Shape{3, 4}, []uint64{4, 1}},
		{"3d", Shape{2, 3, 4}, []uint64{12, 4, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.shape.Strides()
			if len(got) != len(tt.want) {
				t.Fatalf("len mismatch: got %v want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("strides[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveBroadcast(t *testing.T) {
	tests := []struct {
		name          string
		a, b          Shape
		forceInverseB bool
		wantMode      BroadcastMode
		wantErr       bool
	}{
		{"equal shapes", Shape{2, 3}, Shape{2, 3}, false, BroadcastNormal, false},
		{"suffix normal", Shape{2, 3, 4}, Shape{4}, false, BroadcastNormal, false},
		{"prefix forced inverse", Shape{4, 2, 3}, Shape{4}, true, BroadcastInverse, false},
		{"incompatible", Shape{2, 3}, Shape{5}, false, 0, true},
		{"prefix without force picks normal if legal", Shape{3, 3}, Shape{3}, false, BroadcastNormal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := ResolveBroadcast(tt.a, tt.b, tt.forceInverseB)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && mode != tt.wantMode {
				t.Errorf("mode = %v, want %v", mode, tt.wantMode)
			}
		})
	}
}

func TestBroadcastIndex(t *testing.T) {
	// result shape (2,3), predecessor shape (3,) broadcast normal: suffix match
	for i := uint64(0); i < 6; i++ {
		got := BroadcastIndex(i, 6, 3, BroadcastNormal)
		want := i % 3
		if got != want {
			t.Errorf("BroadcastIndex(%d) = %d, want %d", i, got, want)
		}
	}
	// inverse broadcasting: predecessor shape (2,), result (2,3)
	for i := uint64(0); i < 6; i++ {
		got := BroadcastIndex(i, 6, 2, BroadcastInverse)
		want := (i / 3) % 2
		if got != want {
			t.Errorf("BroadcastIndex inverse(%d) = %d, want %d", i, got, want)
		}
	}
}
