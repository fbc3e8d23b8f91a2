package layering

import "reflect"

// MergeLayers folds snapshots ordered strongest first into one value. A
// persisted snapshot laid over compiled defaults keeps every value it sets;
// nil pointers, maps and slices count as unset and fall through to the next
// layer. Maps merge key by key, slices replace wholesale. The result shares
// no memory with the inputs.
func MergeLayers[T any](layers ...T) T {
	if len(layers) == 0 {
		var zero T
		return zero
	}
	merged := deepCopy(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		merged = overlay(reflect.ValueOf(layers[i]), merged)
	}
	return as[T](merged)
}

// Clone returns a deep copy of value. Structs with unexported fields, such as
// decimal.Decimal or time.Time, are copied as a whole.
func Clone[T any](value T) T {
	return as[T](deepCopy(reflect.ValueOf(value)))
}

func as[T any](v reflect.Value) T {
	var zero T
	if !v.IsValid() {
		return zero
	}
	out, _ := v.Interface().(T)
	return out
}

// overlay lays top over base and returns a fresh value.
func overlay(top, base reflect.Value) reflect.Value {
	if !top.IsValid() {
		return deepCopy(base)
	}
	if unset(top) {
		if base.IsValid() && base.Type() == top.Type() {
			return deepCopy(base)
		}
		return reflect.Zero(top.Type())
	}

	switch top.Kind() {
	case reflect.Pointer:
		var baseElem reflect.Value
		if base.IsValid() && base.Kind() == reflect.Pointer && !base.IsNil() {
			baseElem = base.Elem()
		}
		out := reflect.New(top.Type().Elem())
		out.Elem().Set(overlay(top.Elem(), baseElem))
		return out
	case reflect.Struct:
		if !opaqueStruct(top.Type()) {
			return overlayStruct(top, base)
		}
	case reflect.Map:
		return overlayMap(top, base)
	}
	return deepCopy(top)
}

func overlayStruct(top, base reflect.Value) reflect.Value {
	sameType := base.IsValid() && base.Type() == top.Type()
	out := reflect.New(top.Type()).Elem()
	for i := 0; i < top.NumField(); i++ {
		if !out.Field(i).CanSet() {
			continue
		}
		var baseField reflect.Value
		if sameType {
			baseField = base.Field(i)
		}
		out.Field(i).Set(overlay(top.Field(i), baseField))
	}
	return out
}

func overlayMap(top, base reflect.Value) reflect.Value {
	out := reflect.MakeMapWithSize(top.Type(), top.Len())
	if base.IsValid() && base.Kind() == reflect.Map && base.Type() == top.Type() {
		for iter := base.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
	}
	for iter := top.MapRange(); iter.Next(); {
		value := iter.Value()
		if existing := out.MapIndex(iter.Key()); existing.IsValid() {
			value = overlay(value, existing)
		} else {
			value = deepCopy(value)
		}
		out.SetMapIndex(iter.Key(), value)
	}
	return out
}

// unset reports whether v is a nil pointer, map or slice.
func unset(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func deepCopy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	if unset(v) || (v.Kind() == reflect.Interface && v.IsNil()) {
		return reflect.Zero(v.Type())
	}

	switch v.Kind() {
	case reflect.Pointer:
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Struct:
		if opaqueStruct(v.Type()) {
			break
		}
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
		return out
	case reflect.Map:
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		for iter := v.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	}

	out := reflect.New(v.Type()).Elem()
	out.Set(v)
	return out
}

// opaqueStruct reports whether t hides state in unexported fields and so
// has to be copied as one value.
func opaqueStruct(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			return true
		}
	}
	return false
}
