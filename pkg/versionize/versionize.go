// Package versionize provides the version-aware serialization contract used by
// the codec packages: the Serializer/Deserializer interfaces, the VersionMap
// that maps application versions to per-type schema versions, and the
// length-prefixed sequence encoding.
package versionize

import (
	"fmt"
	"io"
	"reflect"
)

// Serializer writes a value in the schema of targetVersion.
type Serializer interface {
	Serialize(w io.Writer, vm *VersionMap, targetVersion uint16) error
}

// Deserializer reads a value written in the schema of sourceVersion.
// Implementations must leave the receiver untouched when they return an error.
type Deserializer interface {
	Deserialize(r io.Reader, vm *VersionMap, sourceVersion uint16) error
}

// Versionize is implemented by types that can be written and read back
// across schema versions.
type Versionize interface {
	Serializer
	Deserializer
	// Version is the current schema version of the type.
	Version() uint16
}

// DeserializerPtr constrains *T to implement Deserializer so generic readers
// can allocate a T and decode into it.
type DeserializerPtr[T any] interface {
	*T
	Deserializer
}

// VersionMap tracks, per application version, which schema version each type
// is at. Application versions start at 1.
type VersionMap struct {
	versions []map[reflect.Type]uint16
}

// NewVersionMap returns a map with a single application version (1) and no
// type overrides.
func NewVersionMap() *VersionMap {
	return &VersionMap{versions: []map[reflect.Type]uint16{{}}}
}

// NewVersion starts a new application version.
func (vm *VersionMap) NewVersion() *VersionMap {
	vm.versions = append(vm.versions, map[reflect.Type]uint16{})
	return vm
}

// SetTypeVersion records that t is at schema version v from the latest
// application version onwards.
func (vm *VersionMap) SetTypeVersion(t reflect.Type, v uint16) error {
	if v == 0 {
		return NewError("set_type_version", t.String(), ErrInvalidVersion, fmt.Errorf("schema versions start at 1"))
	}
	if len(vm.versions) == 0 {
		vm.versions = append(vm.versions, map[reflect.Type]uint16{})
	}
	vm.versions[len(vm.versions)-1][t] = v
	return nil
}

// TypeVersion returns the schema version of t at appVersion. Versions not
// recorded fall back to the nearest earlier application version, then to 1.
func (vm *VersionMap) TypeVersion(appVersion uint16, t reflect.Type) uint16 {
	if vm == nil {
		return 1
	}
	i := min(int(appVersion), len(vm.versions))
	for ; i >= 1; i-- {
		if v, ok := vm.versions[i-1][t]; ok {
			return v
		}
	}
	return 1
}

// LatestVersion returns the newest application version.
func (vm *VersionMap) LatestVersion() uint16 {
	if vm == nil || len(vm.versions) == 0 {
		return 1
	}
	return uint16(len(vm.versions))
}

// TypeOf returns the identity VersionMap uses for T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// SetVersion is the generic form of SetTypeVersion.
func SetVersion[T any](vm *VersionMap, v uint16) error {
	return vm.SetTypeVersion(TypeOf[T](), v)
}

// VersionOf is the generic form of TypeVersion.
func VersionOf[T any](vm *VersionMap, appVersion uint16) uint16 {
	return vm.TypeVersion(appVersion, TypeOf[T]())
}
