package thumbnail

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
)

func squareDoc(t *testing.T) *model.Document {
	t.Helper()
	doc := model.NewDocument(format.R2000)
	require.NoError(t, doc.Insert(&model.LWPolyline{
		Flags:    1,
		Vertices: []model.LWVertex{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
	}))
	return doc
}

func gray(img image.Image, x, y int) uint8 {
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Width, opts.Height = 64, 64
	return opts
}

func TestRenderSquare(t *testing.T) {
	img, err := Render(squareDoc(t).EntityTable, testOptions())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	assert.Equal(t, uint8(255), gray(img, 32, 32), "inside stays background")
	assert.Equal(t, uint8(255), gray(img, 1, 32), "margin stays background")
	edge := min(gray(img, 3, 32), gray(img, 4, 32))
	assert.Less(t, edge, uint8(200), "left edge is stroked")
	top := min(gray(img, 32, 3), gray(img, 32, 4))
	assert.Less(t, top, uint8(200), "top edge is stroked")
}

func TestRenderSkipsHiddenLayers(t *testing.T) {
	doc := squareDoc(t)
	require.NoError(t, doc.AddLayer(&model.Layer{Name: "HIDDEN", Off: true}))
	hidden, err := doc.LayerHandle("HIDDEN")
	require.NoError(t, err)
	require.NoError(t, doc.Insert(&model.Line{
		EntityCommon: model.EntityCommon{Layer: hidden},
		Start:        model.V2(0, 5),
		End:          model.V2(10, 5),
	}))

	img, err := Render(doc.EntityTable, testOptions())
	require.NoError(t, err)
	assert.Equal(t, uint8(255), gray(img, 32, 32))
}

func TestRenderEmpty(t *testing.T) {
	doc := model.NewDocument(format.R2000)
	img, err := Render(doc.EntityTable, testOptions())
	require.NoError(t, err)
	for _, p := range []image.Point{{0, 0}, {32, 32}, {63, 63}} {
		assert.Equal(t, uint8(255), gray(img, p.X, p.Y))
	}

	_, err = Render(doc.EntityTable, Options{})
	assert.Error(t, err)
}

func TestBitmapEncodings(t *testing.T) {
	doc := squareDoc(t)
	opts := testOptions()

	file, err := BMP(doc.EntityTable, opts)
	require.NoError(t, err)
	assert.Equal(t, "BM", string(file[:2]))

	dib, err := DIB(doc.EntityTable, opts)
	require.NoError(t, err)
	assert.Equal(t, file[fileHeaderSize:], dib)

	for name, data := range map[string][]byte{"file": file, "dib": dib} {
		img, err := Decode(data)
		require.NoError(t, err, name)
		assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds(), name)
		assert.Equal(t, uint8(255), gray(img, 32, 32), name)
		assert.Less(t, min(gray(img, 3, 32), gray(img, 4, 32)), uint8(200), name)
	}

	_, err = Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestSupersample(t *testing.T) {
	opts := testOptions()
	opts.Supersample = 3

	img, err := Image(squareDoc(t).EntityTable, opts)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	assert.Equal(t, uint8(255), gray(img, 32, 32))
	assert.Less(t, min(gray(img, 3, 32), gray(img, 4, 32)), uint8(230))

	opts.Width = 0
	_, err = Image(squareDoc(t).EntityTable, opts)
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	doc := squareDoc(t)

	for _, name := range []string{"plan.png", "plan.jpg", "plan.bmp"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(doc.EntityTable, path, testOptions()), name)

		img, err := imaging.Open(path)
		require.NoError(t, err, name)
		assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds(), name)
	}

	assert.Error(t, Save(doc.EntityTable, filepath.Join(dir, "plan.xyz"), testOptions()))
}
