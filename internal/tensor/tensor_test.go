package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{4}, 4},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.shape.NumElements(), "shape %v", tt.shape)
	}
}

func TestShape_Validate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1, 3}.Validate())
}

func TestShape_ComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	assert.Equal(t, []int{12, 4, 1}, strides)

	strides = Shape{5}.ComputeStrides()
	assert.Equal(t, []int{1}, strides)
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b      Shape
		want      Shape
		broadcast bool
	}{
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false},
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true},
		{Shape{4, 1, 6}, Shape{5, 6}, Shape{4, 5, 6}, true},
		{Shape{7}, Shape{2, 7}, Shape{2, 7}, true},
	}
	for _, tt := range tests {
		got, broadcast, err := BroadcastShapes(tt.a, tt.b)
		require.NoError(t, err, "%v vs %v", tt.a, tt.b)
		assert.True(t, got.Equal(tt.want), "%v vs %v: got %v", tt.a, tt.b, got)
		assert.Equal(t, tt.broadcast, broadcast, "%v vs %v", tt.a, tt.b)
	}
}

func TestBroadcastShapes_Incompatible(t *testing.T) {
	_, _, err := BroadcastShapes(Shape{3, 4}, Shape{3, 5})
	assert.Error(t, err)
}

func TestDataType_Size(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Int64.Size())
	assert.Equal(t, 1, Bool.Size())
}

func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(Shape{2, 3}))
	assert.Equal(t, Float32, raw.DType())
	assert.Equal(t, 6, raw.NumElements())
	assert.Equal(t, 24, raw.ByteSize())

	for _, v := range raw.AsFloat32() {
		assert.Zero(t, v)
	}
}

func TestNewRaw_InvalidShape(t *testing.T) {
	_, err := NewRaw(Shape{2, -1}, Float32, CPU)
	assert.Error(t, err)
}

func TestRawTensor_AsFloat32_WrongType(t *testing.T) {
	raw, err := NewRaw(Shape{4}, Int64, CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { raw.AsFloat32() })
}
