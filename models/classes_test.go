package models

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-linecount/models/model"
	"github.com/nvr-ai/go-linecount/models/postprocess"
)

func TestYOLOClasses(t *testing.T) {
	assert.Equal(t, 80, YOLOClasses.Len())
	assert.Equal(t, 81, COCOClasses.Len())

	name, err := YOLOClasses.Name(2)
	require.NoError(t, err)
	assert.Equal(t, "car", name)

	name, err = COCOClasses.Name(3)
	require.NoError(t, err)
	assert.Equal(t, "car", name)

	ids, err := YOLOClasses.IndicesOf("car", "truck")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 7}, ids)
}

func TestOutputClassSet_UnknownClass(t *testing.T) {
	_, err := YOLOClasses.Name(80)
	assert.Error(t, err)
	_, err = YOLOClasses.Name(-1)
	assert.Error(t, err)
	_, err = YOLOClasses.IndicesOf("car", "spaceship")
	assert.Error(t, err)

	assert.Equal(t, "", LookupName(model.ModelFamilyYOLO, 99))
	assert.Equal(t, "truck", LookupName(model.ModelFamilyYOLO, 7))
	assert.Equal(t, "", LookupName("voc", 1))
}

func TestNewModel(t *testing.T) {
	args := model.NewModelArgs{
		Name:                model.ModelNameYOLOv8,
		InputShape:          image.Point{X: 640, Y: 384},
		NumClasses:          YOLOClasses.Len(),
		ConfidenceThreshold: 0.1,
		NMS:                 postprocess.NMSConfig{IoUThreshold: 0.5},
	}

	m, err := NewModel(args)
	require.NoError(t, err)
	assert.Equal(t, model.ModelNameYOLOv8, m.Options().Name)

	args.Name = "rfdetr"
	_, err = NewModel(args)
	assert.Error(t, err)

	args.Name = model.ModelNameYOLOv8
	args.ConfidenceThreshold = 2
	_, err = NewModel(args)
	assert.Error(t, err)
}
