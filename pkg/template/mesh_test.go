package template

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

func TestGrid(t *testing.T) {
	p := DefaultMeshParams()
	p.Z0 = 0.2

	points, err := Grid(p)
	require.NoError(t, err)
	require.Len(t, points, 25)

	px, py := p.Pitch()
	assert.InDelta(t, 4.5, px, 1e-12)
	assert.InDelta(t, 4.5, py, 1e-12)

	assert.Equal(t, geometry.V(1, 1, 0.2), points[0])
	assert.Equal(t, geometry.V(1, 5.5, 0.2), points[1])
	assert.Equal(t, geometry.V(19, 19, 0.2), points[24])
}

func TestMeshParams_Validate(t *testing.T) {
	p := MeshParams{SampleSize: [2]float64{10, 10}, Margin: 5, NX: 1, NY: 2}
	err := p.Validate()
	require.Error(t, err)

	keys := make([]string, 0)
	for _, e := range schema.ValidationErrors(err) {
		keys = append(keys, e.(*schema.ValidationError).Key)
	}
	assert.ElementsMatch(t, []string{"margin", "nx", "speed", "pulse_time", "output_file"}, keys)

	_, err = Grid(p)
	assert.Error(t, err)
}

func TestMeshScan(t *testing.T) {
	c, err := compiler.New(compiler.DefaultParams("mesh"))
	require.NoError(t, err)

	p := DefaultMeshParams()
	p.Angle = 1.5
	require.NoError(t, MeshScan(c, p))

	var b strings.Builder
	require.NoError(t, c.Write(context.Background(), &b))
	text := b.String()

	for _, want := range []string{
		"DVAR $XSIZE $YSIZE $MARGIN $NX $NY $XPITCH $YPITCH $XPOS $YPOS $ZPOS $FH $ANS\n",
		"$XSIZE = 20.000000\n",
		"$NX = 5\n",
		"$XPITCH = ($XSIZE - 2*$MARGIN)/($NX-1)\n",
		"G84 X Y F1.500000\n",
		"$FH = FILEOPEN \"mesh.txt\", 1\n",
		"LINEAR X1.000000 Y1.000000 Z0.000000 F5.000000\n",
		"FOR $I = 0 TO 4\n$XPOS = $MARGIN + $I*$XPITCH\nFOR $J = 0 TO 4\n",
		"LINEAR X$XPOS Y$YPOS F5.000000\nDWELL 0.5\n\n" +
			"$ANS = MSGBOX(DF_MSGBOX_OKONLY, \"FOCUS ON THE SAMPLE SURFACE, THEN PRESS OK\")\n" +
			"PSOCONTROL X ON\nDWELL 0.01\n\nPSOCONTROL X OFF\n",
		"PSOCONTROL X OFF\n$ZPOS = AXISSTATUS(Z, DATAITEM_PositionFeedback)\n",
		"FILEWRITE $FH $XPOS \" \" $YPOS \" \" $ZPOS\n",
		"NEXT $J\n\nNEXT $I\n\n",
		"FILECLOSE $FH\n\nG84 X Y\n",
	} {
		assert.Contains(t, text, want)
	}
	assert.Equal(t, 1, strings.Count(text, "PSOCONTROL X ON"))
	// The operator answers before the height is read at each point.
	loop := text[strings.Index(text, "FOR $J"):strings.Index(text, "NEXT $J")]
	assert.Less(t, strings.Index(loop, "MSGBOX"), strings.Index(loop, "AXISSTATUS(Z"))

	stats := c.Stats()
	// 25 pauses and pulses inside the loops plus the positioning dwell.
	assert.InDelta(t, 25*(0.5+0.01)+0.5, stats.DwellTime, 1e-9)
}

func TestMeshScan_InvalidParams(t *testing.T) {
	c, err := compiler.New(compiler.DefaultParams("mesh"))
	require.NoError(t, err)

	p := DefaultMeshParams()
	p.Speed = 0
	assert.Error(t, MeshScan(c, p))
	assert.Empty(t, c.String())
}
