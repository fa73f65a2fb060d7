package scene

import (
	"github.com/pkg/errors"

	"github.com/matt-g-everett/lottietx/util"
)

type keyframe struct {
	time  float64
	start Value
	end   Value
	ease  util.Easing
}

// Property is a keyframed value. Keyframes are read-only after load and
// shared between clones.
type Property struct {
	static Value
	keys   []keyframe
}

// Animated reports whether the property has keyframes.
func (p *Property) Animated() bool {
	return len(p.keys) > 0
}

// At evaluates the property at frame.
func (p *Property) At(frame float64) Value {
	if len(p.keys) == 0 {
		return p.static
	}
	if frame <= p.keys[0].time {
		return p.keys[0].start
	}

	last := len(p.keys) - 1
	i := segmentIndex(len(p.keys), frame, func(i int) float64 { return p.keys[i].time })
	if i == last {
		return p.keys[last].start
	}

	k := p.keys[i]
	span := p.keys[i+1].time - k.time
	if span <= 0 {
		return k.end
	}
	return lerpValue(k.start, k.end, k.ease((frame-k.time)/span))
}

// segmentIndex returns the last key index whose time is at or before frame.
func segmentIndex(n int, frame float64, timeAt func(int) float64) int {
	i := 0
	for i+1 < n && timeAt(i+1) <= frame {
		i++
	}
	return i
}

func staticProperty(v Value) Property {
	return Property{static: v}
}

// parseProperty reads a {"a": 0|1, "k": ...} block. A missing block
// yields def.
func parseProperty(v interface{}, def Value) (Property, error) {
	if v == nil {
		return staticProperty(def), nil
	}

	obj, ok := toObject(v)
	if !ok {
		// Bare values show up in effect parameters and older exports.
		val, ok := toValue(v, def)
		if !ok {
			return Property{}, errors.Wrap(ErrMalformed, "property is neither an object nor a value")
		}
		return staticProperty(val), nil
	}

	k := obj["k"]
	if k == nil {
		return staticProperty(def), nil
	}
	if !isKeyframeList(k) {
		val, ok := toValue(k, def)
		if !ok {
			return Property{}, errors.Wrap(ErrMalformed, "unreadable static value")
		}
		return staticProperty(val), nil
	}

	raw, _ := toArray(k)
	keys := make([]keyframe, 0, len(raw))
	var ends []interface{}
	for _, r := range raw {
		ko, _ := toObject(r)
		t, ok := toFloat(ko["t"])
		if !ok {
			return Property{}, errors.Wrap(ErrMalformed, "keyframe without time")
		}

		kf := keyframe{time: t, ease: keyEasing(ko)}
		if s, present := ko["s"]; present {
			val, ok := toValue(s, def)
			if !ok {
				return Property{}, errors.Wrapf(ErrMalformed, "keyframe at %v has unreadable start", t)
			}
			kf.start = val
		} else if len(keys) > 0 {
			kf.start = keys[len(keys)-1].end
		} else {
			kf.start = def
		}

		kf.end = kf.start
		if e, present := ko["e"]; present {
			if val, ok := toValue(e, def); ok {
				kf.end = val
			}
		}
		ends = append(ends, ko["e"])
		keys = append(keys, kf)
	}

	// Without a legacy "e" a segment ends where the next key starts.
	for i := 0; i+1 < len(keys); i++ {
		if ends[i] == nil {
			keys[i].end = keys[i+1].start
		}
	}
	return Property{keys: keys}, nil
}

func isKeyframeList(k interface{}) bool {
	arr, ok := toArray(k)
	if !ok || len(arr) == 0 {
		return false
	}
	_, ok = toObject(arr[0])
	return ok
}

func keyEasing(ko map[string]interface{}) util.Easing {
	if toBool(ko["h"]) {
		return util.Hold
	}

	out, okOut := toObject(ko["o"])
	in, okIn := toObject(ko["i"])
	if !okOut || !okIn {
		return util.Linear
	}

	x1, ok1 := firstFloat(out["x"])
	y1, ok2 := firstFloat(out["y"])
	x2, ok3 := firstFloat(in["x"])
	y2, ok4 := firstFloat(in["y"])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return util.Linear
	}
	return util.CubicBezier(x1, y1, x2, y2)
}
