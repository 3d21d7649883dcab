package rig

import (
	"fmt"

	"go-morp/box"
	"go-morp/config"
	"go-morp/effects"
)

// NewEffect builds the effect stage described by fx
func NewEffect(fx config.EffectConfig) (box.Effect, error) {
	switch fx.Kind {
	case config.EffectHarmonizer:
		return effects.NewHarmonizer(fx.Voices...), nil
	case config.EffectShadow:
		period, repeat, decay := effects.DefaultShadowPeriod, effects.DefaultShadowRepeat, effects.DefaultShadowDecay
		if fx.Period > 0 {
			period = fx.Period
		}
		if fx.Repeat > 0 {
			repeat = fx.Repeat
		}
		if fx.Decay != nil {
			decay = *fx.Decay
		}
		return effects.NewShadow(period, repeat, decay), nil
	case config.EffectFreeze:
		return effects.NewFreeze(), nil
	case config.EffectPedal:
		return effects.NewPedal(), nil
	case config.EffectAutotune:
		return effects.NewAutotune(fx.Scale, fx.Autocorrect), nil
	case config.EffectChopper:
		return effects.Chopper{}, nil
	}
	return nil, fmt.Errorf("%w %q", config.ErrUnknownEffect, fx.Kind)
}

// newNodes builds one node per effect config, in order
func newNodes(stages []config.EffectConfig) ([]*box.Node, error) {
	nodes := make([]*box.Node, 0, len(stages))
	for _, fx := range stages {
		effect, err := NewEffect(fx)
		if err != nil {
			return nil, err
		}
		n := box.NewNode(string(fx.Kind), effect)
		n.SetSuppressRetrigger(fx.SuppressRetrigger)
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// chain wires nodes in series and returns the last one
func chain(head *box.Node, nodes []*box.Node) *box.Node {
	tail := head
	for _, n := range nodes {
		tail.SetOutputs(n)
		tail = n
	}
	return tail
}
