package types

import "fmt"

// StorageClass enumerates the BPF map backing a bpftrace `@name` may use.
type StorageClass uint8

const (
	StorageHash StorageClass = iota
	StorageLRUHash
	StoragePerCPUHash
	StoragePerCPULRUHash
	StoragePerCPUArray
)

// Scalarity records whether a map has been observed used with a key
// ("non-scalar") or without one ("scalar"). Unknown means no use has been
// seen yet.
type Scalarity uint8

const (
	ScalarityUnknown Scalarity = iota
	Scalar
	NonScalar
)

// MapType holds the fixed attributes of a global `@name` map: the first
// use's key and value types (I1), and the first use's scalarity (I2).
// Instances are owned by the global map table and mutated only on a map's
// first typed use; afterwards they are read-only.
type MapType struct {
	Name        string
	KeyType     SizedType
	ValueType   SizedType
	Storage     StorageClass
	MaxEntries  uint32
	Scalarity   Scalarity
	FirstUse    bool // true until the first typed use seeds KeyType/ValueType
	DeclaredAgg bool // true once ValueType was produced by an aggregation constructor (I3)
}

// NewMapType creates an unseeded map record; KeyType/ValueType/Scalarity
// are filled in by the first semantic encounter.
func NewMapType(name string) *MapType {
	return &MapType{Name: name, FirstUse: true}
}

// Seed fixes a map's key/value type and scalarity on first use. Calling
// Seed more than once is a programmer error in this package — callers
// must check FirstUse first.
func (m *MapType) Seed(key, value SizedType, scalar Scalarity, fromAgg bool) {
	m.KeyType = key
	m.ValueType = value
	m.Scalarity = scalar
	m.FirstUse = false
	m.DeclaredAgg = fromAgg
}

func (m *MapType) String() string {
	return fmt.Sprintf("@%s", m.Name)
}
