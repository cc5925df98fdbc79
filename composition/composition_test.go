package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePitch(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{name: "C4", want: 60},
		{name: "C#4", want: 61},
		{name: "Db4", want: 61},
		{name: "A4", want: 69},
		{name: "Bb3", want: 58},
		{name: "G#2", want: 44},
		{name: "C-1", want: 0},
		{name: "G9", want: 127},
		{name: "c4", want: 60},
		{name: "H4", wantErr: true},
		{name: "C", wantErr: true},
		{name: "C#", wantErr: true},
		{name: "Cx4", wantErr: true},
		{name: "A12", wantErr: true},
		{name: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePitch(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func valid() *Composition {
	return &Composition{
		Scale: []string{"C4", "D4", "E4", "G4", "A4"},
		Motif: Motif{
			Pitches: []string{"C4", "E4", "G4"},
			Rhythm:  []float64{1, 0.5, 0.5},
		},
		Form: []string{"A", "A'", "B", "A"},
		InstrumentRoles: map[Instrument]string{
			Piano: "melody",
			Bass:  "bass",
		},
		EuclideanPatterns: map[string][]int{
			"melody": {1, 0, 0, 1, 0, 0, 1, 0},
			"bass":   {1, 0, 0, 0, 1, 0, 0, 0},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, valid().Validate())

	t.Run("empty scale", func(t *testing.T) {
		c := valid()
		c.Scale = nil
		assert.Error(t, c.Validate())
	})
	t.Run("empty motif pitches", func(t *testing.T) {
		c := valid()
		c.Motif.Pitches = nil
		assert.Error(t, c.Validate())
	})
	t.Run("empty rhythm", func(t *testing.T) {
		c := valid()
		c.Motif.Rhythm = nil
		assert.Error(t, c.Validate())
	})
	t.Run("zero rhythm value", func(t *testing.T) {
		c := valid()
		c.Motif.Rhythm = []float64{1, 0}
		assert.Error(t, c.Validate())
	})
	t.Run("empty form", func(t *testing.T) {
		c := valid()
		c.Form = nil
		assert.Error(t, c.Validate())
	})
	t.Run("bad scale pitch", func(t *testing.T) {
		c := valid()
		c.Scale = []string{"X4"}
		assert.Error(t, c.Validate())
	})
	t.Run("unknown instrument", func(t *testing.T) {
		c := valid()
		c.InstrumentRoles["theremin"] = "melody"
		assert.Error(t, c.Validate())
	})
	t.Run("bad pattern bit", func(t *testing.T) {
		c := valid()
		c.EuclideanPatterns["melody"] = []int{1, 2, 0}
		assert.Error(t, c.Validate())
	})
}

func TestInstrumentSet(t *testing.T) {
	for _, inst := range Instruments {
		assert.True(t, inst.Valid(), string(inst))
		_, ok := GMProgram[inst]
		assert.True(t, ok, string(inst))
	}
	assert.False(t, Instrument("kazoo").Valid())
}
