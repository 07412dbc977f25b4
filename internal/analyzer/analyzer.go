package analyzer

import (
	"math"
	"reflect"
)

// DefaultSampleLimit is the number of leading elements inspected when
// classifying data type and value range.
const DefaultSampleLimit = 100

// Analyzer classifies inputs. The zero value is not usable; use New.
type Analyzer struct {
	Breakpoints Breakpoints
	SampleLimit int
}

// New returns an Analyzer with the default breakpoints and sample limit.
func New() *Analyzer {
	return &Analyzer{Breakpoints: DefaultBreakpoints(), SampleLimit: DefaultSampleLimit}
}

var defaultAnalyzer = New()

// Classify classifies input with the default Analyzer.
func Classify(input any) Characteristics {
	return defaultAnalyzer.Classify(input)
}

// Classify returns the characteristics of input. It never panics: anything
// it cannot inspect is reported as Unknown.
func (a *Analyzer) Classify(input any) (c Characteristics) {
	defer func() {
		if r := recover(); r != nil {
			c = Unknown
		}
	}()

	size, dt, vr, ok := a.inspect(input)
	if !ok {
		return Unknown
	}
	cat := a.Breakpoints.Categorize(size)
	return Characteristics{
		Size:                size,
		SizeCategory:        cat,
		DataType:            dt,
		ValueRange:          vr,
		RecommendedStrategy: Recommend(cat, dt),
	}
}

func (a *Analyzer) limit(n int) int {
	if a.SampleLimit > 0 && n > a.SampleLimit {
		return a.SampleLimit
	}
	return n
}

// inspect dispatches on the common concrete types first and only falls back
// to reflection for everything else.
func (a *Analyzer) inspect(input any) (size int, dt DataType, vr ValueRange, ok bool) {
	switch v := input.(type) {
	case nil:
		return 0, DataUnknown, RangeUnknown, false
	case []float64:
		return len(v), DataNumeric, floatRange(v[:a.limit(len(v))]), true
	case []float32:
		return len(v), DataNumeric, numericRange(a.limit(len(v)), func(i int) float64 { return float64(v[i]) }), true
	case []int:
		return len(v), DataNumeric, numericRange(a.limit(len(v)), func(i int) float64 { return float64(v[i]) }), true
	case []int32:
		return len(v), DataNumeric, numericRange(a.limit(len(v)), func(i int) float64 { return float64(v[i]) }), true
	case []int64:
		return len(v), DataNumeric, numericRange(a.limit(len(v)), func(i int) float64 { return float64(v[i]) }), true
	case []uint8:
		if len(v) == 0 {
			return 0, DataNumeric, RangeEmpty, true
		}
		return len(v), DataNumeric, RangeByte, true
	case []string:
		return len(v), DataString, RangeUnknown, true
	case string:
		return len(v), DataString, RangeUnknown, true
	case []any:
		return a.inspectAny(v)
	}
	return a.inspectReflect(reflect.ValueOf(input))
}

func (a *Analyzer) inspectAny(v []any) (int, DataType, ValueRange, bool) {
	n := a.limit(len(v))
	if len(v) == 0 {
		return 0, DataUnknown, RangeEmpty, true
	}
	var numeric, str, obj int
	values := make([]float64, 0, n)
	for _, e := range v[:n] {
		if e == nil {
			continue
		}
		switch kindFamily(reflect.ValueOf(e)) {
		case DataNumeric:
			numeric++
			values = append(values, toFloat(reflect.ValueOf(e)))
		case DataString:
			str++
		default:
			obj++
		}
	}
	dt := combine(numeric, str, obj)
	if dt == DataNumeric {
		return len(v), dt, floatRange(values), true
	}
	return len(v), dt, RangeUnknown, true
}

func (a *Analyzer) inspectReflect(rv reflect.Value) (int, DataType, ValueRange, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return 0, DataUnknown, RangeUnknown, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		if n == 0 {
			fam := elemFamily(rv.Type().Elem())
			if fam == DataNumeric {
				return 0, fam, RangeEmpty, true
			}
			return 0, fam, RangeUnknown, true
		}
		limit := a.limit(n)
		var numeric, str, obj int
		values := make([]float64, 0, limit)
		for i := 0; i < limit; i++ {
			e := rv.Index(i)
			for e.Kind() == reflect.Interface || e.Kind() == reflect.Pointer {
				if e.IsNil() {
					break
				}
				e = e.Elem()
			}
			switch kindFamily(e) {
			case DataNumeric:
				numeric++
				values = append(values, toFloat(e))
			case DataString:
				str++
			case DataObject:
				obj++
			}
		}
		dt := combine(numeric, str, obj)
		if dt == DataNumeric {
			return n, dt, floatRange(values), true
		}
		return n, dt, RangeUnknown, true
	case reflect.Map:
		return rv.Len(), DataObject, RangeUnknown, true
	case reflect.String:
		return rv.Len(), DataString, RangeUnknown, true
	case reflect.Struct:
		return 1, DataObject, RangeUnknown, true
	}

	if kindFamily(rv) == DataNumeric {
		return 1, DataNumeric, floatRange([]float64{toFloat(rv)}), true
	}
	return 0, DataUnknown, RangeUnknown, false
}

func combine(numeric, str, obj int) DataType {
	kinds := 0
	for _, c := range [...]int{numeric, str, obj} {
		if c > 0 {
			kinds++
		}
	}
	switch {
	case kinds == 0:
		return DataUnknown
	case kinds > 1:
		return DataMixed
	case numeric > 0:
		return DataNumeric
	case str > 0:
		return DataString
	default:
		return DataObject
	}
}

func kindFamily(v reflect.Value) DataType {
	if !v.IsValid() {
		return DataUnknown
	}
	return elemFamily(v.Type())
}

func elemFamily(t reflect.Type) DataType {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return DataNumeric
	case reflect.String:
		return DataString
	case reflect.Interface, reflect.Invalid:
		return DataUnknown
	default:
		return DataObject
	}
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func floatRange(values []float64) ValueRange {
	return numericRange(len(values), func(i int) float64 { return values[i] })
}

// numericRange folds the first n values into the narrowest range that
// contains all of them.
func numericRange(n int, at func(int) float64) ValueRange {
	if n == 0 {
		return RangeEmpty
	}
	r := RangeByte
	for i := 0; i < n; i++ {
		x := at(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return RangeNonFinite
		}
		switch {
		case x != math.Trunc(x) || x < math.MinInt32 || x > math.MaxInt32:
			r = RangeFloat
		case r == RangeByte && (x < 0 || x > 255):
			r = RangeInteger
		}
	}
	return r
}
