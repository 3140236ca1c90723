package flyability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_NilOverrideReturnsBase(t *testing.T) {
	base := DefaultThresholds()
	assert.Equal(t, base, Resolve(base, nil))
	assert.Equal(t, base, Resolve(base, ThresholdSet{}))
}

func TestResolve_OverrideScopedToLeaf(t *testing.T) {
	base := DefaultThresholds()
	override := ThresholdSet{GroupWind: {ParamSurface: {Yellow: Float(22)}}}

	got := Resolve(base, override)

	surface, ok := got.Lookup(GroupWind, ParamSurface)
	require.True(t, ok)
	assert.Equal(t, 22.0, *surface.Yellow)
	assert.Equal(t, 12.0, *surface.Green, "sibling bound keeps its base value")

	gusts, _ := got.Lookup(GroupWind, ParamGusts)
	assert.Equal(t, 25.0, *gusts.Yellow)
	assert.Equal(t, 20.0, *gusts.Green)

	for group, params := range base {
		for name, b := range params {
			if group == GroupWind && name == ParamSurface {
				continue
			}
			assert.Equal(t, b, got[group][name], "%s.%s changed", group, name)
		}
	}
}

func TestResolve_DoesNotMutateInputs(t *testing.T) {
	base := DefaultThresholds()
	pristine := DefaultThresholds()
	override := ThresholdSet{GroupThermal: {ParamCAPE: {Green: Float(500)}}}

	got := Resolve(base, override)
	*got[GroupThermal][ParamCAPE].Yellow = 9999

	assert.Equal(t, pristine, base)
	assert.Equal(t, 500.0, *override[GroupThermal][ParamCAPE].Green)
	assert.Nil(t, override[GroupThermal][ParamCAPE].Yellow)
}

func TestResolve_DeterministicAndOrderIndependent(t *testing.T) {
	base := DefaultThresholds()
	o1 := ThresholdSet{GroupWind: {ParamGusts: {Yellow: Float(30)}}}
	o2 := ThresholdSet{GroupPrecip: {ParamProbability: {Green: Float(60)}}}

	assert.Equal(t, Resolve(base, o1), Resolve(base, o1))
	assert.Equal(t, Resolve(Resolve(base, o1), o2), Resolve(Resolve(base, o2), o1))
	assert.Equal(t, Resolve(base, o1), Resolve(Resolve(base, o1), o1))
}

func TestResolve_AcceptsUnknownKeys(t *testing.T) {
	override := ThresholdSet{"custom": {"thing": {Limit: Float(3)}}}
	got := Resolve(DefaultThresholds(), override)

	b, ok := got.Lookup("custom", "thing")
	require.True(t, ok)
	assert.Equal(t, 3.0, *b.Limit)
}

func TestDefaultThresholds_ReturnsCopy(t *testing.T) {
	a := DefaultThresholds()
	*a[GroupWind][ParamSurface].Green = 1

	b := DefaultThresholds()
	assert.Equal(t, 12.0, *b[GroupWind][ParamSurface].Green)
}

func TestValidateOverride(t *testing.T) {
	tests := []struct {
		name     string
		override ThresholdSet
		wantErr  bool
	}{
		{name: "nil", override: nil},
		{name: "valid leaf", override: ThresholdSet{GroupWind: {ParamSurface: {Yellow: Float(20)}}}},
		{name: "reversed ok", override: ThresholdSet{GroupClouds: {ParamVisibility: {Green: Float(8000)}}}},
		{name: "unknown group", override: ThresholdSet{"sea": {ParamSurface: {Yellow: Float(1)}}}, wantErr: true},
		{name: "unknown parameter", override: ThresholdSet{GroupWind: {"hail": {Yellow: Float(1)}}}, wantErr: true},
		{name: "out of range", override: ThresholdSet{GroupWind: {ParamSurface: {Yellow: Float(500)}}}, wantErr: true},
		{name: "green above yellow", override: ThresholdSet{GroupWind: {ParamSurface: {Green: Float(19)}}}, wantErr: true},
		{name: "capped cloud total yellow", override: ThresholdSet{GroupClouds: {ParamCloudTotal: {Yellow: Float(80)}}}},
		{name: "capped cloud total green", override: ThresholdSet{GroupClouds: {ParamCloudTotal: {Green: Float(70)}}}, wantErr: true},
		{name: "capped spread limit", override: ThresholdSet{GroupThermal: {ParamSpreadDry: {Limit: Float(15)}}}},
		{name: "capped spread yellow", override: ThresholdSet{GroupThermal: {ParamSpreadDry: {Yellow: Float(15)}}}, wantErr: true},
		{name: "storm cape green", override: ThresholdSet{GroupPrecip: {ParamStormCAPE: {Green: Float(500)}}}, wantErr: true},
		{name: "probability green", override: ThresholdSet{GroupPrecip: {ParamProbability: {Green: Float(30)}}}},
		{name: "probability yellow", override: ThresholdSet{GroupPrecip: {ParamProbability: {Yellow: Float(80)}}}, wantErr: true},
		{name: "fog yellow", override: ThresholdSet{GroupFog: {ParamSevereVisibility: {Yellow: Float(1000)}}}, wantErr: true},
		{name: "two tier limit", override: ThresholdSet{GroupWind: {ParamSurface: {Limit: Float(15)}}}, wantErr: true},
		{name: "reversed green below yellow", override: ThresholdSet{GroupClouds: {ParamVisibility: {Green: Float(1000)}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOverride(tt.override)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOverride)
				return
			}
			assert.NoError(t, err)
		})
	}
}
