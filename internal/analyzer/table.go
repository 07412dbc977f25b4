package analyzer

// Breakpoints are the exclusive upper bounds of the Tiny, Small and Medium
// size buckets. Inputs at or above Medium are Large.
type Breakpoints struct {
	Tiny   int
	Small  int
	Medium int
}

// DefaultBreakpoints returns the standard bucket boundaries:
// tiny < 100, small < 10,000, medium < 1,000,000, large otherwise.
func DefaultBreakpoints() Breakpoints {
	return Breakpoints{Tiny: 100, Small: 10_000, Medium: 1_000_000}
}

// Categorize buckets n. Negative sizes are Unknown.
func (b Breakpoints) Categorize(n int) SizeCategory {
	switch {
	case n < 0:
		return SizeUnknown
	case n < b.Tiny:
		return SizeTiny
	case n < b.Small:
		return SizeSmall
	case n < b.Medium:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// DecisionTable maps (size, data type) to the recommended strategy. It is the
// single source of truth for which kind of execution is worth attempting.
// Missing combinations, including anything Unknown, resolve to fallback.
var DecisionTable = map[SizeCategory]map[DataType]Strategy{
	SizeTiny: {
		DataNumeric: StrategyFallback,
		DataString:  StrategyFallback,
		DataMixed:   StrategyFallback,
		DataObject:  StrategyFallback,
	},
	SizeSmall: {
		DataNumeric: StrategyNative,
		DataString:  StrategyFallback,
		DataMixed:   StrategyFallback,
		DataObject:  StrategyFallback,
	},
	SizeMedium: {
		DataNumeric: StrategySIMD,
		DataString:  StrategyNative,
		DataMixed:   StrategyHybrid,
		DataObject:  StrategyFallback,
	},
	SizeLarge: {
		DataNumeric: StrategyParallel,
		DataString:  StrategyNative,
		DataMixed:   StrategyHybrid,
		DataObject:  StrategyHybrid,
	},
}

// Recommend looks up the strategy for a (size, data type) pair.
func Recommend(size SizeCategory, dt DataType) Strategy {
	if row, ok := DecisionTable[size]; ok {
		if s, ok := row[dt]; ok {
			return s
		}
	}
	return StrategyFallback
}
