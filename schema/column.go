// Package schema provides the column type model.
package schema

// Arity describes how many values a column holds per row.
type Arity int

const (
	// Required columns reject NULL.
	Required Arity = iota
	// Nullable columns accept NULL.
	Nullable
	// List columns hold arrays (Postgres only).
	List
)

// String implements fmt.Stringer.
func (a Arity) String() string {
	switch a {
	case Required:
		return "Required"
	case Nullable:
		return "Nullable"
	case List:
		return "List"
	default:
		return "Unknown"
	}
}

// IsRequired reports whether the arity is Required.
func (a Arity) IsRequired() bool { return a == Required }

// IsNullable reports whether the arity is Nullable.
func (a Arity) IsNullable() bool { return a == Nullable }

// TypeFamily is the canonical, connector-independent classification of a
// column type. Connector-specific subtleties live in ColumnType.Native.
type TypeFamily int

const (
	FamilyInt TypeFamily = iota
	FamilyBigInt
	FamilyFloat
	FamilyDecimal
	FamilyBoolean
	FamilyString
	FamilyDateTime
	FamilyBytes
	FamilyJSON
	FamilyUUID
	FamilyEnum
	FamilyGeometry
	FamilyUnsupported
)

var familyNames = map[TypeFamily]string{
	FamilyInt:         "Int",
	FamilyBigInt:      "BigInt",
	FamilyFloat:       "Float",
	FamilyDecimal:     "Decimal",
	FamilyBoolean:     "Boolean",
	FamilyString:      "String",
	FamilyDateTime:    "DateTime",
	FamilyBytes:       "Bytes",
	FamilyJSON:        "Json",
	FamilyUUID:        "Uuid",
	FamilyEnum:        "Enum",
	FamilyGeometry:    "Geometry",
	FamilyUnsupported: "Unsupported",
}

// String implements fmt.Stringer.
func (f TypeFamily) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return "Unknown"
}

// ColumnType describes a column's type: the canonical family plus the
// connector-specific native name and parameters.
type ColumnType struct {
	// Family is the canonical classification.
	Family TypeFamily
	// Native is the connector's type name, e.g. "varchar" or "timestamptz".
	Native string
	// Params holds length/precision/scale when the native type carries them.
	Params []int
	// Enum references the backing enum when Family is FamilyEnum.
	Enum EnumID
}

// Length returns the first type parameter (length or precision). The boolean
// reports whether one is present.
func (t ColumnType) Length() (int, bool) {
	if len(t.Params) == 0 {
		return 0, false
	}
	return t.Params[0], true
}

// DefaultKind discriminates the origin of a column default.
type DefaultKind int

const (
	// DefaultValue is a plain literal default.
	DefaultValue DefaultKind = iota
	// DefaultDBGenerated is an arbitrary database expression.
	DefaultDBGenerated
	// DefaultSequence is a sequence-generated value (serial, identity).
	DefaultSequence
)

// Default is a column default value.
type Default struct {
	Kind  DefaultKind
	Value string
}

// Column is a table column. The zero value is not a valid column.
type Column struct {
	Name          string
	Type          ColumnType
	Arity         Arity
	Default       *Default
	AutoIncrement bool
}

// HasDefault reports whether the column carries any default.
func (c *Column) HasDefault() bool { return c.Default != nil }
