package access

import (
	"reflect"
	"strings"
)

// AttributeError reports a failed strict attribute lookup. It is deliberately
// not part of the schema error taxonomy: a missing attribute on a non-optional
// field surfaces as the raw lookup failure.
type AttributeError struct {
	Path    string // full dot-separated accessor path
	Segment string // segment that failed to resolve
	Target  string // Go type the segment was looked up on
}

func (e *AttributeError) Error() string {
	return "goshape: " + e.Target + " has no attribute \"" + e.Segment + "\" (path \"" + e.Path + "\")"
}

// lookupAttr resolves one attribute segment on obj. Resolution order: struct
// field by goshape/json tag or (case-insensitive) name, string-keyed map entry,
// then a niladic single-return method. Pointers and interfaces are dereferenced
// before the structural lookup; methods are also tried on the original value so
// pointer receivers stay reachable.
func lookupAttr(obj any, name string) (any, bool) {
	orig := reflect.ValueOf(obj)
	v := orig
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Struct:
		if fv, ok := structField(v, name); ok {
			return fv.Interface(), true
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			key := reflect.ValueOf(name)
			if kt := v.Type().Key(); kt != key.Type() {
				key = key.Convert(kt)
			}
			if mv := v.MapIndex(key); mv.IsValid() {
				return mv.Interface(), true
			}
		}
	}
	return callNamed(orig, v, name)
}

// structField selects the struct field matching name. Priority follows the
// external-key rule: goshape:"name=..." tag, json tag name, exact field name,
// then case-insensitive field name. A "-" key disables the field.
func structField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	fold := -1
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := resolveKey(sf)
		if key == "-" {
			continue
		}
		if key == name || sf.Name == name {
			return v.Field(i), true
		}
		if fold < 0 && strings.EqualFold(sf.Name, name) {
			fold = i
		}
	}
	if fold >= 0 {
		return v.Field(fold), true
	}
	return reflect.Value{}, false
}

// resolveKey resolves a struct field's external key.
// Priority: goshape:"name=..." > json tag name > field name.
func resolveKey(sf reflect.StructField) string {
	if gt := sf.Tag.Get("goshape"); gt != "" {
		for _, p := range strings.Split(gt, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}

// callNamed invokes a niladic single-return method called name, trying the
// original value first (pointer method sets included) and the dereferenced
// value second. Method names match case-insensitively because Go exports are
// capitalized while declared field names usually are not.
func callNamed(orig, elem reflect.Value, name string) (any, bool) {
	for _, recv := range []reflect.Value{orig, elem} {
		if !recv.IsValid() {
			continue
		}
		m := recv.MethodByName(name)
		if !m.IsValid() {
			rt := recv.Type()
			for i := 0; i < rt.NumMethod(); i++ {
				if strings.EqualFold(rt.Method(i).Name, name) {
					m = recv.Method(i)
					break
				}
			}
		}
		if m.IsValid() {
			if mt := m.Type(); mt.NumIn() == 0 && mt.NumOut() == 1 {
				return m.Call(nil)[0].Interface(), true
			}
		}
	}
	return nil, false
}
