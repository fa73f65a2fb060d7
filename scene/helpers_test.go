package scene

type obj = map[string]interface{}
type arr = []interface{}

func static(v ...interface{}) obj {
	if len(v) == 1 {
		return obj{"a": 0, "k": v[0]}
	}
	return obj{"a": 0, "k": arr(v)}
}

func animated(keys ...obj) obj {
	k := make(arr, len(keys))
	for i := range keys {
		k[i] = keys[i]
	}
	return obj{"a": 1, "k": k}
}

func rect(name string) obj {
	return obj{"ty": "rc", "nm": name, "p": static(0.0, 0.0), "s": static(10.0, 10.0)}
}

func fill(name string) obj {
	return obj{"ty": "fl", "nm": name, "c": static(1.0, 0.0, 0.0, 1.0), "o": static(100.0)}
}

func trimItem(name string, s, e, o float64) obj {
	return obj{"ty": "tm", "nm": name, "s": static(s), "e": static(e), "o": static(o)}
}

func group(name string, items ...interface{}) obj {
	return obj{"ty": "gr", "nm": name, "it": arr(items)}
}

func shapeLayer(name string, ind int, items ...interface{}) obj {
	return obj{"ty": 4, "nm": name, "ind": ind, "ip": 0, "op": 60, "ks": obj{}, "shapes": arr(items)}
}

func document(layers ...interface{}) obj {
	return obj{"fr": 30, "ip": 0, "op": 60, "w": 100, "h": 100, "layers": arr(layers)}
}

// recorder is a Renderer that logs every call.
type recorder struct {
	trace    []string
	depth    int
	maxDepth int
}

func (r *recorder) SaveState() {
	r.trace = append(r.trace, "save")
	r.depth++
	if r.depth > r.maxDepth {
		r.maxDepth = r.depth
	}
}

func (r *recorder) RestoreState() {
	r.trace = append(r.trace, "restore")
	r.depth--
}

func (r *recorder) Render(n Ref) error {
	r.trace = append(r.trace, n.Kind().String()+":"+n.Name())
	return nil
}

func childNames(r Ref) []string {
	var names []string
	for _, c := range r.Children() {
		names = append(names, c.Name())
	}
	return names
}
