package analyzer

// SizeCategory buckets an input by element count.
type SizeCategory int

const (
	SizeUnknown SizeCategory = iota
	SizeTiny
	SizeSmall
	SizeMedium
	SizeLarge
)

func (c SizeCategory) String() string {
	switch c {
	case SizeTiny:
		return "tiny"
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return "unknown"
	}
}

// DataType is the element type family observed in the inspected prefix.
type DataType int

const (
	DataUnknown DataType = iota
	DataNumeric
	DataString
	DataMixed
	DataObject
)

func (d DataType) String() string {
	switch d {
	case DataNumeric:
		return "numeric"
	case DataString:
		return "string"
	case DataMixed:
		return "mixed"
	case DataObject:
		return "object"
	default:
		return "unknown"
	}
}

// ValueRange describes the numeric range of the inspected prefix. It is only
// computed for numeric data; everything else reports RangeUnknown.
type ValueRange int

const (
	RangeUnknown ValueRange = iota
	// RangeEmpty means the input had no elements to inspect.
	RangeEmpty
	// RangeByte means every inspected value is an integer in [0, 255].
	RangeByte
	// RangeInteger means every inspected value is an integer within int32.
	RangeInteger
	// RangeFloat means at least one inspected value is fractional or
	// outside the int32 range.
	RangeFloat
	// RangeNonFinite means at least one inspected value is NaN or infinite.
	RangeNonFinite
)

func (r ValueRange) String() string {
	switch r {
	case RangeEmpty:
		return "empty"
	case RangeByte:
		return "byte"
	case RangeInteger:
		return "integer"
	case RangeFloat:
		return "float"
	case RangeNonFinite:
		return "non-finite"
	default:
		return "unknown"
	}
}

// Strategy is the kind of execution recommended for an input.
type Strategy int

const (
	StrategyFallback Strategy = iota
	StrategyNative
	StrategySIMD
	StrategyParallel
	StrategyHybrid
)

func (s Strategy) String() string {
	switch s {
	case StrategyNative:
		return "native"
	case StrategySIMD:
		return "simd"
	case StrategyParallel:
		return "parallel"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "fallback"
	}
}

// PrefersNative reports whether the strategy involves the native path at all.
func (s Strategy) PrefersNative() bool {
	return s != StrategyFallback
}

// Characteristics is the per-call descriptor produced by Classify. It is
// derived and ephemeral; callers must not cache it on the input.
type Characteristics struct {
	Size                int
	SizeCategory        SizeCategory
	DataType            DataType
	ValueRange          ValueRange
	RecommendedStrategy Strategy
}

// Unknown is the conservative classification used for inputs that cannot be
// inspected.
var Unknown = Characteristics{
	SizeCategory:        SizeUnknown,
	DataType:            DataUnknown,
	ValueRange:          RangeUnknown,
	RecommendedStrategy: StrategyFallback,
}
