package repository

import "reflect"

// snapshot deep-clones an entity value for change tracking. A plain struct
// copy shares backing storage with map, slice and pointer fields (JSON maps,
// preloaded associations), so an in-place mutation of those would rewrite the
// snapshot too and the diff at Save would miss it.
func snapshot(v reflect.Value) any {
	return deepClone(v, make(map[uintptr]reflect.Value)).Interface()
}

func deepClone(v reflect.Value, seen map[uintptr]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		if cached, ok := seen[v.Pointer()]; ok {
			return cached
		}
		clone := reflect.New(v.Type().Elem())
		seen[v.Pointer()] = clone
		clone.Elem().Set(deepClone(v.Elem(), seen))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		clone := reflect.New(v.Type()).Elem()
		clone.Set(deepClone(v.Elem(), seen))
		return clone
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), deepClone(iter.Value(), seen))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(deepClone(v.Index(i), seen))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.Len(); i++ {
			if cloneable(v.Index(i).Kind()) {
				clone.Index(i).Set(deepClone(v.Index(i), seen))
			}
		}
		return clone
	case reflect.Struct:
		// Shallow-copy first so unexported fields (time.Time internals)
		// carry over, then replace the exported reference-typed fields.
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() || !cloneable(field.Kind()) {
				continue
			}
			field.Set(deepClone(v.Field(i), seen))
		}
		return clone
	default:
		return v
	}
}

func cloneable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}
